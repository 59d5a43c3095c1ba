package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	bstoml "github.com/BurntSushi/toml"
	"github.com/mattn/go-isatty"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/aqtoml/encode/toml"
	"github.com/dzjyyds666/aqtoml/internal/options"
	"github.com/dzjyyds666/aqtoml/pkg"
)

type TomlParams struct {
	Find      string            `json:"find"`      // 查找的key
	Input     string            `json:"input"`     // 输入文件路径
	Output    string            `json:"output"`    // 输出文件地址
	Separator string            `json:"separator"` // 数组元素分隔符
	Inline    []string          `json:"inline"`    // 以内联表输出的 key
	Numeric   bool              `json:"numeric"`
	Diff      bool              `json:"diff"`
	Verify    bool              `json:"verify"`
	Color     bool              `json:"color"` // diff 是否输出颜色
	Comments  map[string]string `json:"comments"` // section -> 注释
}

var (
	errNoInput      = errors.New("no input file path")
	errInputMissing = errors.New("input file not exist")
	errKeyNotFound  = errors.New("key not found")
)

var params *TomlParams

var tomlCmd = &cobra.Command{
	Use:   "toml",
	Short: "convert YAML or JSON into TOML",
	RunE:  tomlRun,
}

func init() {
	params = &TomlParams{}
	tomlCmd.Flags().StringVarP(&params.Find, "find", "f", "", "only convert the value at this dotted key")
	tomlCmd.Flags().StringVarP(&params.Input, "input", "i", "", "input file path")
	tomlCmd.Flags().StringVarP(&params.Output, "output", "o", "", "output path (default stdout)")
	tomlCmd.Flags().StringVar(&params.Separator, options.ConfigKeySeparator, options.DefaultSeparator, "separator between array elements")
	tomlCmd.Flags().StringSliceVar(&params.Inline, "inline", nil, "dotted keys of tables to write as inline tables")
	tomlCmd.Flags().BoolVar(&params.Numeric, options.ConfigKeyNumeric, false, "write sized numbers as numbers")
	tomlCmd.Flags().BoolVar(&params.Diff, "diff", false, "print a diff against the output file instead of writing it")
	tomlCmd.Flags().BoolVar(&params.Verify, "verify", false, "decode the result again and fail if it is not valid TOML")
	tomlCmd.Flags().StringToStringVar(&params.Comments, options.ConfigKeyComments, nil, "comment to write above a section, as section=text")
}

func tomlRun(cmd *cobra.Command, args []string) error {
	v := options.NewViper(opts.ConfigFile, log)
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}
	params.Separator = v.GetString(options.ConfigKeySeparator)
	params.Numeric = v.GetBool(options.ConfigKeyNumeric)
	params.Color = isatty.IsTerminal(os.Stdout.Fd())
	return convert(afero.NewOsFs(), params, cmd.OutOrStdout(), log)
}

// convert reads p.Input, encodes it and writes the result to p.Output, or
// to stdout when no output is given.
func convert(fs afero.Fs, p *TomlParams, stdout io.Writer, log *logrus.Entry) error {
	if len(p.Input) == 0 {
		return errNoInput
	}
	exist, err := pkg.CheckFileExist(fs, p.Input)
	if err != nil {
		return fmt.Errorf("check file exist error: %w", err)
	}
	if !exist {
		return fmt.Errorf("%w: %s", errInputMissing, p.Input)
	}
	data, err := afero.ReadFile(fs, p.Input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	doc, err := pkg.LoadDocument(data)
	if err != nil {
		return err
	}
	for _, key := range p.Inline {
		if err := markInline(doc, key); err != nil {
			return err
		}
	}

	enc, err := newEncoder(p, log)
	if err != nil {
		return err
	}
	out, err := encode(doc, p.Find, enc)
	if err != nil {
		return err
	}
	log.WithField("bytes", len(out)).Debug("input converted")

	if p.Verify {
		if err := verifyOutput(out); err != nil {
			return err
		}
	}

	if p.Diff {
		var old string
		if p.Output != "" {
			if ok, _ := pkg.CheckFileExist(fs, p.Output); ok {
				b, err := afero.ReadFile(fs, p.Output)
				if err != nil {
					return fmt.Errorf("read output: %w", err)
				}
				old = string(b)
			}
		}
		dmp := diffmatchpatch.New()
		diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(old, out, false))
		text := dmp.PatchToText(dmp.PatchMake(old, diffs))
		if p.Color {
			text = dmp.DiffPrettyText(diffs)
		}
		_, err := io.WriteString(stdout, text)
		return err
	}

	if p.Output == "" {
		_, err := io.WriteString(stdout, out)
		return err
	}
	if err := afero.WriteFile(fs, p.Output, []byte(out), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.WithField("file", p.Output).Info("toml written")
	return nil
}

// verifyOutput decodes out again with an independent TOML parser.
func verifyOutput(out string) error {
	var check map[string]any
	if _, err := bstoml.Decode(out, &check); err != nil {
		return fmt.Errorf("verify output: %w", err)
	}
	return nil
}

func newEncoder(p *TomlParams, log *logrus.Entry) (*toml.Encoder, error) {
	eopts := []toml.Option{toml.WithLogger(log), toml.WithPreserve(len(p.Inline) > 0)}
	if p.Numeric {
		eopts = append(eopts, toml.WithNumericTypes())
	}
	for section, comment := range p.Comments {
		eopts = append(eopts, toml.WithSectionComment(section, comment))
	}
	sep := p.Separator
	if sep == "" {
		sep = options.DefaultSeparator
	}
	return toml.NewArraySeparatorEncoder(sep, eopts...)
}

// encode writes the whole document, or only the value under the dotted key
// find. A table found that way is written as a document of its own.
func encode(doc *toml.Table, find string, enc *toml.Encoder) (string, error) {
	if find == "" {
		return toml.Dumps(doc, enc)
	}
	v, ok := lookup(doc, find)
	if !ok {
		return "", fmt.Errorf("%w: %s", errKeyNotFound, find)
	}
	if _, isTable := v.(toml.Mapping); isTable {
		return toml.Dumps(v, enc)
	}
	s, err := enc.DumpValue(v)
	if err != nil {
		return "", err
	}
	return s + "\n", nil
}

func lookup(doc *toml.Table, key string) (any, bool) {
	var cur any = doc
	for _, part := range strings.Split(key, ".") {
		if len(part) == 0 {
			continue
		}
		t, ok := cur.(toml.Mapping)
		if !ok {
			return nil, false
		}
		cur, ok = t.Get(part)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// markInline swaps the table under key for an InlineTable with the same
// contents.
func markInline(doc *toml.Table, key string) error {
	parts := strings.Split(key, ".")
	parent := doc
	if len(parts) > 1 {
		v, ok := lookup(doc, strings.Join(parts[:len(parts)-1], "."))
		if !ok {
			return fmt.Errorf("%w: %s", errKeyNotFound, key)
		}
		if parent, ok = v.(*toml.Table); !ok {
			return fmt.Errorf("%w: %s", errKeyNotFound, key)
		}
	}
	last := parts[len(parts)-1]
	v, ok := parent.Get(last)
	if !ok {
		return fmt.Errorf("%w: %s", errKeyNotFound, key)
	}
	t, ok := v.(*toml.Table)
	if !ok {
		return fmt.Errorf("%s is not a table", key)
	}
	it := toml.NewInlineTable()
	for _, k := range t.Keys() {
		val, _ := t.Get(k)
		it.Set(k, val)
	}
	parent.Set(last, it)
	return nil
}
