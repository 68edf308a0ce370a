package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then the lifecycle namespace is used", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "recomodel")
				So(manager.subsystem, ShouldEqual, "lifecycle")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then the options are applied", func() {
				So(manager.namespace, ShouldEqual, "test_namespace")
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})

				manager.decisions.WithLabelValues(DecisionTrain).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)

				var found bool
				for _, mf := range families {
					if mf.GetName() == "test_namespace_test_subsystem_decisions_total" {
						found = true
						So(mf.GetMetric()[0].GetLabel()[1].GetName(), ShouldEqual, "env")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When empty values are passed", func() {
			manager := NewManager(
				WithNamespace(""),
				WithHistogramBuckets(nil),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then defaults are kept", func() {
				So(manager.namespace, ShouldEqual, "recomodel")
				So(manager.histogramBuckets, ShouldNotBeEmpty)
			})
		})
	})
}

func TestGlobalRecorders(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording lifecycle events", func() {
			before := testutil.ToFloat64(globalManager.decisions.WithLabelValues(DecisionReject))

			So(func() {
				RecordAggregation(3, 2)
				RecordDecision(DecisionReject)
				RecordFitDuration(12)
				RecordFitFailure()
				RecordCorruptArtifact()
				UpdateModelDimensions(5, 45)
				RecordSourceFallback("items")
				RecordCommand("initialize", "ok")
			}, ShouldNotPanic)

			Convey("Then the values are observable", func() {
				So(testutil.ToFloat64(globalManager.decisions.WithLabelValues(DecisionReject)), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.aggregatedRecords), ShouldEqual, 3)
				So(testutil.ToFloat64(globalManager.modelActors), ShouldEqual, 5)
				So(testutil.ToFloat64(globalManager.modelItems), ShouldEqual, 45)
			})
		})
	})
}

func TestWriteTextfile(t *testing.T) {
	Convey("Given a textfile destination", t, func() {
		path := filepath.Join(t.TempDir(), "recomodel.prom")
		RecordCommand("stats", "ok")

		Convey("When writing the registry", func() {
			err := WriteTextfile(path)

			Convey("Then the exposition format is written", func() {
				So(err, ShouldBeNil)
				data, readErr := os.ReadFile(path)
				So(readErr, ShouldBeNil)
				So(strings.Contains(string(data), "recomodel_lifecycle_commands_total"), ShouldBeTrue)
			})
		})

		Convey("When the directory does not exist", func() {
			err := WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom"))

			Convey("Then a wrapped error is returned", func() {
				So(errors.Is(err, ErrWriteTextfile), ShouldBeTrue)
			})
		})
	})
}
