package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/vango-dev/vtree/internal/config"
	verrors "github.com/vango-dev/vtree/internal/errors"
	"github.com/vango-dev/vtree/pkg/server"
	"github.com/vango-dev/vtree/pkg/vdom"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const (
	listABC = `{tag: ul, keyed: true, children: [
  {key: a, tag: li, children: [{text: A}]},
  {key: b, tag: li, children: [{text: B}]},
  {key: c, tag: li, children: [{text: C}]}]}`
	listCAB = `{tag: ul, keyed: true, children: [
  {key: c, tag: li, children: [{text: C!}]},
  {key: a, tag: li, children: [{text: A}]},
  {key: b, tag: li, children: [{text: B}]}]}`
)

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", listABC)
	b := writeFile(t, dir, "b.yaml", listCAB)

	out, err := run(t, "diff", "--apply", "--stats", a, b)
	if err != nil {
		t.Fatalf("diff: %v\n%s", err, out)
	}
	for _, want := range []string{"Reorder", "Remove", `move "c"`, `insert  "c" at 0`, `"C!"`, "round trip ok", "total"} {
		if !strings.Contains(out, want) {
			t.Errorf("output is missing %q:\n%s", want, out)
		}
	}
}

func TestDiffCommandNoChanges(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", listABC)
	b := writeFile(t, dir, "b.json", `{"tag": "ul", "keyed": true, "children": [
  {"key": "a", "tag": "li", "children": [{"text": "A"}]},
  {"key": "b", "tag": "li", "children": [{"text": "B"}]},
  {"key": "c", "tag": "li", "children": [{"text": "C"}]}]}`)

	out, err := run(t, "diff", "--apply", a, b)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "no changes") {
		t.Errorf("output = %q", out)
	}
}

func TestDiffCommandErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", listABC)
	bad := writeFile(t, dir, "bad.yaml", "{}")

	if _, err := run(t, "diff", a); err == nil {
		t.Error("diff with one argument should fail")
	}
	if _, err := run(t, "diff", a, bad); !verrors.Is(err, "E302") {
		t.Errorf("err = %v, want E302", err)
	}
	if _, err := run(t, "diff", a, filepath.Join(dir, "nope.yaml")); !verrors.Is(err, "E501") {
		t.Errorf("err = %v, want E501", err)
	}
}

func TestExecuteErrorFormat(t *testing.T) {
	verrors.DisableColors()
	defer verrors.EnableColors()

	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", listABC)
	missing := filepath.Join(dir, "nope.yaml")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"default", []string{"diff", a, missing}, []string{"error[E501] cli: Cannot read input\n", "= see https://"}},
		{"pretty", []string{"--error-format=pretty", "diff", a, missing}, []string{"error[E501]"}},
		{"compact", []string{"--error-format=compact", "diff", a, missing}, []string{"E501 Cannot read input: ", "nope.yaml"}},
		{"json", []string{"--error-format", "json", "diff", a, missing}, []string{`{"code":"E501","category":"cli"`}},
		{"unknown format", []string{"--error-format=xml", "version"}, []string{"error[E503]", `unknown error format "xml"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out, stderr bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)
			if code := execute(cmd, &stderr); code != 1 {
				t.Errorf("exit code = %d, want 1", code)
			}
			for _, want := range tt.want {
				if !strings.Contains(stderr.String(), want) {
					t.Errorf("stderr is missing %q:\n%s", want, stderr.String())
				}
			}
		})
	}

	var stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"version"})
	if code := execute(cmd, &stderr); code != 0 || stderr.Len() != 0 {
		t.Errorf("version: exit %d, stderr %q", code, stderr.String())
	}
}

func TestExplainCommand(t *testing.T) {
	verrors.DisableColors()
	defer verrors.EnableColors()

	out, err := run(t, "explain")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "\n"); n != len(verrors.Codes()) {
		t.Errorf("listed %d codes, want %d", n, len(verrors.Codes()))
	}
	for _, want := range []string{"E101", "E302", "document", "Invalid node"} {
		if !strings.Contains(out, want) {
			t.Errorf("list is missing %q", want)
		}
	}

	out, err = run(t, "explain", "E302")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "error[E302] document: Invalid node\n") {
		t.Errorf("explain E302 = %q", out)
	}

	if _, err := run(t, "explain", "E999"); err == nil || !strings.Contains(err.Error(), `unknown error code "E999"`) {
		t.Errorf("err = %v", err)
	}
}

func TestDescribe(t *testing.T) {
	row := vdom.NewTagger("row", func(m any) any { return m })
	tests := []struct {
		patch vdom.Patch
		want  string
	}{
		{vdom.Patch{Kind: vdom.PatchText, Text: "hi"}, ` "hi"`},
		{vdom.Patch{Kind: vdom.PatchRedraw, Node: vdom.P("x")}, " <p>"},
		{vdom.Patch{Kind: vdom.PatchRedraw, Node: vdom.Text("x")}, ` text "x"`},
		{vdom.Patch{Kind: vdom.PatchRetag, Taggers: []*vdom.Tagger{row}}, " row"},
		{vdom.Patch{Kind: vdom.PatchRemoveLast, Start: 1, Count: 2}, " from 1, 2 children"},
		{vdom.Patch{Kind: vdom.PatchAppend, Start: 1, Children: []*vdom.VNode{vdom.P(), vdom.P(), vdom.P()}}, " from 1, 2 children"},
		{vdom.Patch{Kind: vdom.PatchFacts, Facts: &vdom.FactsDiff{Styles: map[string]string{"color": ""}}}, " styles=1"},
		{vdom.Patch{Kind: vdom.PatchRemove}, ""},
	}
	for _, tc := range tests {
		if got := describe(tc.patch); got != tc.want {
			t.Errorf("describe(%s) = %q, want %q", tc.patch.Kind, got, tc.want)
		}
	}
}

func TestCheckRoundTripMismatch(t *testing.T) {
	prev := vdom.Ul(vdom.Li("a"))
	next := vdom.Ul(vdom.Li("b"))
	if err := checkRoundTrip(prev, next, nil); !verrors.Is(err, "E502") {
		t.Errorf("err = %v, want E502", err)
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "tree.yaml", `{tag: div, attrs: {id: app}, children: [{tag: p, children: [{text: hello}]}]}`)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"plain", []string{"render", path}, []string{`<div id="app"><p>hello</p></div>`}},
		{"pretty", []string{"render", "--pretty", path}, []string{"<div id=\"app\">\n  <p>hello</p>\n</div>"}},
		{"page", []string{"render", "--page", "--title", "Demo", path}, []string{"<!DOCTYPE html>", "<title>Demo</title>", "<p>hello</p>"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, tc.args...)
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range tc.want {
				if !strings.Contains(out, want) {
					t.Errorf("output is missing %q:\n%s", want, out)
				}
			}
		})
	}

	if _, err := run(t, "render", writeFile(t, dir, "tree.txt", "")); !verrors.Is(err, "E303") {
		t.Errorf("err = %v, want E303", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}

func TestServeShutsDown(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", listABC)
	b := writeFile(t, dir, "b.yaml", listCAB)
	writeFile(t, dir, config.ConfigFileName, `{"metrics": {"enabled": true}}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, logs bytes.Buffer
	opts := serveOptions{dir: dir, port: 0, host: "127.0.0.1"}
	if err := runServe(ctx, &out, &logs, []string{a, b}, opts); err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !strings.Contains(out.String(), "serving 2 trees") {
		t.Errorf("output = %q", out.String())
	}
}

func TestServeErrors(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	opts := serveOptions{dir: dir, port: -1}

	if err := runServe(context.Background(), &out, &out, nil, opts); !verrors.Is(err, "E501") {
		t.Errorf("no trees: err = %v, want E501", err)
	}

	bad := writeFile(t, dir, "bad.yaml", "{}")
	if err := runServe(context.Background(), &out, &out, []string{bad}, opts); !verrors.Is(err, "E302") {
		t.Errorf("bad tree: err = %v, want E302", err)
	}

	opts.port = 70000
	if err := runServe(context.Background(), &out, &out, []string{bad}, opts); !verrors.Is(err, "E402") {
		t.Errorf("bad port: err = %v, want E402", err)
	}
}

func TestStepper(t *testing.T) {
	trees := []*vdom.VNode{vdom.P("one"), vdom.P("two"), vdom.P("three")}
	s := server.NewSession(context.Background(), "t", trees[0])
	defer s.Close()
	advance := stepper(s, trees)

	for i, want := range []string{"two", "three", "one", "two"} {
		if err := advance(context.Background()); err != nil {
			t.Fatal(err)
		}
		if got := s.Tree().Children[0].Text; got != want {
			t.Errorf("step %d: tree shows %q, want %q", i, got, want)
		}
	}
}

// isolateAWS points the AWS configuration chain at the given static
// credentials and away from the user's shared files.
func isolateAWS(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "id")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("AWS_SESSION_TOKEN", "")
}

func TestOpenStore(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	store, err := openStore(ctx, config.SnapshotConfig{Backend: config.BackendMemory})
	if err != nil || store == nil {
		t.Fatalf("memory store: %v", err)
	}

	store, err = openStore(ctx, config.SnapshotConfig{Backend: config.BackendS3, Bucket: "b", Region: "us-east-1"})
	if err != nil || store == nil {
		t.Fatalf("s3 store: %v", err)
	}

	if _, err := openStore(ctx, config.SnapshotConfig{Backend: "disk"}); !verrors.Is(err, "E402") {
		t.Errorf("err = %v, want E402", err)
	}
}

func TestS3Client(t *testing.T) {
	isolateAWS(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      config.SnapshotConfig
		endpoint string
		path     bool
	}{
		{"aws", config.SnapshotConfig{Region: "eu-west-1"}, "", false},
		{"minio", config.SnapshotConfig{Region: "us-east-1", Endpoint: "http://localhost:9000"}, "http://localhost:9000", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := s3Client(ctx, tt.cfg)
			if err != nil {
				t.Fatal(err)
			}
			o := client.Options()
			if o.Region != tt.cfg.Region {
				t.Errorf("region = %q, want %q", o.Region, tt.cfg.Region)
			}
			if got := aws.ToString(o.BaseEndpoint); got != tt.endpoint {
				t.Errorf("endpoint = %q, want %q", got, tt.endpoint)
			}
			if o.UsePathStyle != tt.path {
				t.Errorf("path style = %v, want %v", o.UsePathStyle, tt.path)
			}
			creds, err := o.Credentials.Retrieve(ctx)
			if err != nil || creds.AccessKeyID != "id" || creds.SecretAccessKey != "secret" {
				t.Errorf("credentials = %+v, %v", creds, err)
			}
		})
	}
}
