package config_test

import (
	"errors"
	"testing"

	"github.com/okian/ctfboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.PageSize, convey.ShouldEqual, 20)
			convey.So(cfg.MaxPageSize, convey.ShouldEqual, 200)
			convey.So(cfg.EventWindowDays, convey.ShouldEqual, 365)
			convey.So(cfg.ReloadSchedule, convey.ShouldBeEmpty)
			convey.So(cfg.TeamsFile, convey.ShouldBeEmpty)
			convey.So(cfg.DebugEnabled, convey.ShouldBeFalse)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "ctfboard")
		})

		convey.Convey("Then the defaults should validate", func() {
			convey.So(config.Validate(cfg), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("When the page size exceeds the maximum", func() {
			cfg.PageSize = 500

			convey.Convey("Then validation should fail", func() {
				err := config.Validate(cfg)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "PageSize")
			})
		})

		convey.Convey("When the log level is unknown", func() {
			cfg.LogLevel = "verbose"

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(config.Validate(cfg), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the event window is not positive", func() {
			cfg.EventWindowDays = 0

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(config.Validate(cfg), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the reload schedule is not a cron expression", func() {
			cfg.ReloadSchedule = "every day"

			convey.Convey("Then validation should fail", func() {
				err := config.Validate(cfg)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "reload_schedule")
			})
		})

		convey.Convey("When the metrics namespace is not a metric name", func() {
			cfg.MetricsNamespace = "ctf-board"

			convey.Convey("Then validation should fail", func() {
				err := config.Validate(cfg)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "MetricsNamespace")
			})
		})

		convey.Convey("When a metrics label name is invalid", func() {
			cfg.MetricsConstLabels = map[string]string{"data center": "eu"}

			convey.Convey("Then validation should fail", func() {
				convey.So(errors.Is(config.Validate(cfg), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When latency buckets are not increasing", func() {
			cfg.MetricsLatencyBuckets = []float64{1, 5, 5}

			convey.Convey("Then validation should fail", func() {
				err := config.Validate(cfg)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "metrics_latency_buckets")
			})
		})

		convey.Convey("When the metrics section is valid", func() {
			cfg.MetricsNamespace = "board"
			cfg.MetricsConstLabels = map[string]string{"instance": "eu-1"}
			cfg.MetricsLatencyBuckets = []float64{1, 10, 100}

			convey.Convey("Then validation should pass", func() {
				convey.So(config.Validate(cfg), convey.ShouldBeNil)
			})
		})

		convey.Convey("When the reload schedule is valid", func() {
			cfg.ReloadSchedule = "@hourly"

			convey.Convey("Then validation should pass", func() {
				convey.So(config.Validate(cfg), convey.ShouldBeNil)
			})
		})
	})
}
