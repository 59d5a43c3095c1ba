package toml

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/smartystreets/goconvey/convey"
)

type celsius float64

type point struct{ X, Y int }

type version struct{ major, minor int }

func (v version) EncodeTOML(dump func(any) (string, error)) (string, error) {
	return dump(fmt.Sprintf("%d.%d", v.major, v.minor))
}

func TestDumpValue(t *testing.T) {
	enc := NewEncoder()

	convey.Convey("registered scalars", t, func() {
		cases := []struct {
			in   any
			want string
		}{
			{"x", `"x"`},
			{true, "true"},
			{false, "false"},
			{42, "42"},
			{int64(-7), "-7"},
			{3.0, "3.0"},
			{time.Date(2020, 2, 29, 12, 0, 0, 0, time.UTC), "2020-02-29T12:00:00Z"},
			{gotoml.LocalDate{Year: 1979, Month: 5, Day: 27}, "1979-05-27"},
			{gotoml.LocalTime{Hour: 7, Minute: 32}, "07:32:00"},
			{gotoml.LocalDateTime{
				LocalDate: gotoml.LocalDate{Year: 1979, Month: 5, Day: 27},
				LocalTime: gotoml.LocalTime{Hour: 7, Minute: 32},
			}, "1979-05-27T07:32:00"},
		}
		for _, c := range cases {
			s, err := enc.DumpValue(c.in)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s, convey.ShouldEqual, c.want)
		}
	})

	convey.Convey("unregistered scalars fall back to strings", t, func() {
		s, err := enc.DumpValue(int8(5))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `"5"`)

		s, err = enc.DumpValue(celsius(21.5))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `"21.5"`)

		s, err = enc.DumpValue(90 * time.Minute)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `"1h30m0s"`)

		s, err = enc.DumpValue([]byte("raw"))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `"raw"`)
	})

	convey.Convey("pointers to registered types are followed", t, func() {
		n := 3
		s, err := enc.DumpValue(&n)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "3")

		ts := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
		s, err = enc.DumpValue(&ts)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "2001-01-01T00:00:00Z")
	})

	convey.Convey("unsupported values", t, func() {
		for _, v := range []any{nil, make(chan int), func() {}, point{1, 2}, (*int)(nil)} {
			_, err := enc.DumpValue(v)
			convey.So(errors.Is(err, ErrUnsupportedType), convey.ShouldBeTrue)
		}
	})

	convey.Convey("Encodable values format themselves", t, func() {
		s, err := enc.DumpValue(version{1, 2})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `"1.2"`)
	})
}

func TestDumpList(t *testing.T) {
	enc := NewEncoder()

	convey.Convey("arrays", t, func() {
		s, err := enc.DumpValue([]any{1, "two", 3.5})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `[1, "two", 3.5]`)

		s, err = enc.DumpValue([]int{})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "[]")

		s, err = enc.DumpValue([2]string{"a", "b"})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `["a", "b"]`)

		s, err = enc.DumpValue([]any{[]any{1, 2}, []string{"x"}})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `[[1, 2], ["x"]]`)
	})

	convey.Convey("mappings inside arrays are inline tables", t, func() {
		s, err := enc.DumpValue([]any{1, NewTable().Set("k", "v")})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `[1, { k = "v" }]`)
	})

	convey.Convey("nil elements are rejected with their index", t, func() {
		_, err := enc.DumpValue([]any{1, nil})
		convey.So(errors.Is(err, ErrUnsupportedType), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, "index 1")
	})

	convey.Convey("a list containing itself", t, func() {
		self := make([]any, 1)
		self[0] = self
		_, err := enc.DumpValue(self)
		convey.So(errors.Is(err, ErrCircularReference), convey.ShouldBeTrue)
	})

	convey.Convey("the same list twice is not a cycle", t, func() {
		shared := []any{1}
		s, err := enc.DumpValue([]any{shared, shared})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "[[1], [1]]")
	})
}

func TestDumpInlineTable(t *testing.T) {
	enc := NewEncoder()

	convey.Convey("inline tables", t, func() {
		tbl := NewTable().Set("name", "Tom").Set("dob", time.Date(1979, 5, 27, 7, 32, 0, 0, time.UTC))
		s, err := enc.DumpInlineTable(tbl)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `{ name = "Tom", dob = 1979-05-27T07:32:00Z }`)

		s, err = enc.DumpInlineTable(NewTable())
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "{}")

		s, err = enc.DumpInlineTable(NewTable().Set("a b", NewTable().Set("c", 1)).Set("skip", nil))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `{ "a b" = { c = 1 } }`)

		s, err = enc.DumpInlineTable(map[string]int{"b": 2, "a": 1})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "{ a = 1, b = 2 }")

		s, err = enc.DumpInlineTable(7)
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "7")
	})

	convey.Convey("a table containing itself", t, func() {
		tbl := NewTable()
		tbl.Set("me", tbl)
		_, err := enc.DumpInlineTable(tbl)
		convey.So(errors.Is(err, ErrCircularReference), convey.ShouldBeTrue)
	})
}

func TestRegister(t *testing.T) {
	convey.Convey("callers can add formatters", t, func() {
		enc := NewEncoder()
		RegisterFunc(enc, func(c celsius) (string, error) {
			return formatFloat(float64(c), 64), nil
		})
		enc.Register(reflect.TypeOf(point{}), func(v any) (string, error) {
			p := v.(point)
			return enc.DumpValue([]any{p.X, p.Y})
		})

		s, err := enc.DumpValue(celsius(21.5))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "21.5")

		s, err = enc.DumpValue(point{1, 2})
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, "[1, 2]")

		out, err := Dumps(NewTable().Set("at", point{3, 4}), enc)
		convey.So(err, convey.ShouldBeNil)
		convey.So(out, convey.ShouldEqual, "at = [3, 4]\n")
	})

	convey.Convey("registries are per encoder", t, func() {
		a, b := NewEncoder(), NewEncoder()
		RegisterFunc(a, func(c celsius) (string, error) { return "1.0", nil })
		s, err := b.DumpValue(celsius(1))
		convey.So(err, convey.ShouldBeNil)
		convey.So(s, convey.ShouldEqual, `"1"`)
	})

	convey.Convey("formatter errors reach the caller", t, func() {
		enc := NewEncoder()
		boom := errors.New("boom")
		RegisterFunc(enc, func(p point) (string, error) { return "", boom })
		_, err := Dumps(map[string]any{"p": point{}}, enc)
		convey.So(errors.Is(err, boom), convey.ShouldBeTrue)
		convey.So(strings.Contains(err.Error(), "key p"), convey.ShouldBeTrue)
	})
}
