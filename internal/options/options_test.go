package options

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseLogLevel(t *testing.T) {
	convey.Convey("parse log level", t, func() {
		convey.So(ParseLogLevel("debug"), convey.ShouldEqual, logrus.DebugLevel)
		convey.So(ParseLogLevel("loud"), convey.ShouldEqual, DefaultLogLevel)
	})
}

func TestNewViper(t *testing.T) {
	convey.Convey("config file and environment", t, func() {
		cfg := filepath.Join(t.TempDir(), "aq.yaml")
		convey.So(os.WriteFile(cfg, []byte("separator: \" , \"\nnumeric: true\n"), 0o644), convey.ShouldBeNil)
		t.Setenv("AQ_NUMERIC", "false")

		v := NewViper(cfg, NewLogger("error"))
		convey.So(v.GetString(ConfigKeySeparator), convey.ShouldEqual, " , ")
		convey.So(v.GetBool(ConfigKeyNumeric), convey.ShouldBeFalse)
	})
}
