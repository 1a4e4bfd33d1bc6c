package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/ctfboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 20)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CTFBOARD_ADDR", ":8080")
			_ = os.Setenv("CTFBOARD_PAGE_SIZE", "50")
			_ = os.Setenv("CTFBOARD_EVENT_WINDOW_DAYS", "30")
			_ = os.Setenv("CTFBOARD_DEBUG_ENABLED", "true")
			_ = os.Setenv("CTFBOARD_RATE_LIMIT_RPS", "2.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 50)
				convey.So(cfg.EventWindowDays, convey.ShouldEqual, 30)
				convey.So(cfg.DebugEnabled, convey.ShouldBeTrue)
				convey.So(cfg.RateLimitRPS, convey.ShouldEqual, 2.5)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
addr: ":9090"
teams_file: /data/teams.json
events_file: /data/events.json
reload_schedule: "*/15 * * * *"
page_size: 25
cors_allowed_origins:
  - https://ctf.example.org
  - https://rankings.example.org
`
			tmpFile := createTempFile("ctfboard-config-*.yaml", yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CTFBOARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.TeamsFile, convey.ShouldEqual, "/data/teams.json")
				convey.So(cfg.EventsFile, convey.ShouldEqual, "/data/events.json")
				convey.So(cfg.ReloadSchedule, convey.ShouldEqual, "*/15 * * * *")
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{
					"https://ctf.example.org", "https://rankings.example.org",
				})
			})

			convey.Convey("Then fields missing from the file should keep their defaults", func() {
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 200)
				convey.So(cfg.EventWindowDays, convey.ShouldEqual, 365)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempFile("ctfboard-config-*.yaml", "addr: \":9090\"\npage_size: 25\n")
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CTFBOARD_CONFIG", tmpFile)
			_ = os.Setenv("CTFBOARD_ADDR", ":8080")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
			})
		})

		convey.Convey("When a .env file is present", func() {
			dotenv := createTempFile("ctfboard-*.env", "CTFBOARD_PAGE_SIZE=33\nCTFBOARD_ADDR=:7070\n")
			defer func() { _ = os.Remove(dotenv) }()

			_ = os.Setenv("CTFBOARD_ENV_FILE", dotenv)
			_ = os.Setenv("CTFBOARD_ADDR", ":6060")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then its values should apply without overriding the process env", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PageSize, convey.ShouldEqual, 33)
				convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("CTFBOARD_CONFIG", "/nonexistent/ctfboard.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempFile("ctfboard-config-*.yaml", `invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("CTFBOARD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("CTFBOARD_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "Addr")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CTFBOARD_PAGE_SIZE", "twenty")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CTFBOARD_CONFIG",
		"CTFBOARD_ENV_FILE",
		"CTFBOARD_ADDR",
		"CTFBOARD_PAGE_SIZE",
		"CTFBOARD_EVENT_WINDOW_DAYS",
		"CTFBOARD_DEBUG_ENABLED",
		"CTFBOARD_RATE_LIMIT_RPS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempFile(pattern, content string) string {
	tmpFile, err := os.CreateTemp("", pattern)
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
