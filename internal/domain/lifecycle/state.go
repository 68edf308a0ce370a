package lifecycle

// State is the controller's position in its one-way lifecycle.
type State int

const (
	// Uninitialized is the state before Initialize or Retrain ran.
	Uninitialized State = iota
	// Ready means a model is loaded and can serve.
	Ready
	// Rejected is terminal for the invocation.
	Rejected
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Rejected:
		return "rejected"
	default:
		return "uninitialized"
	}
}

// Decision is the outcome of a load-or-train pass.
type Decision int

const (
	// DecisionNone means no pass ran yet.
	DecisionNone Decision = iota
	// DecisionReuse loaded the persisted model unchanged.
	DecisionReuse
	// DecisionTrain fitted and persisted a new model.
	DecisionTrain
	// DecisionReject refused to train.
	DecisionReject
)

func (d Decision) String() string {
	switch d {
	case DecisionReuse:
		return "reuse"
	case DecisionTrain:
		return "train"
	case DecisionReject:
		return "reject"
	default:
		return "none"
	}
}
