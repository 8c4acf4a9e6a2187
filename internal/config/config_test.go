package config_test

import (
	"testing"
	"time"

	"github.com/agrolens/agrolens/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DefaultCrop, convey.ShouldEqual, "wheat")
			convey.So(cfg.DefaultMetric, convey.ShouldEqual, "yield")
			convey.So(cfg.ComparisonWindow, convey.ShouldEqual, 5)
			convey.So(cfg.ImpactPositivePct, convey.ShouldEqual, 5)
			convey.So(cfg.ImpactNegativePct, convey.ShouldEqual, -5)
			convey.So(cfg.StoreMaxOpenConns, convey.ShouldEqual, 25)
			convey.So(cfg.StoreMaxIdleConns, convey.ShouldEqual, 10)
		})

		convey.Convey("Then the duration helpers should convert units", func() {
			convey.So(cfg.StoreConnectTimeout(), convey.ShouldEqual, 3*time.Second)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.FallbackTTL(), convey.ShouldEqual, time.Duration(0))
		})
	})
}
