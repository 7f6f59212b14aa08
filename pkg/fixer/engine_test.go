package fixer_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stackvity/arabfix/internal/testutil"
	"github.com/stackvity/arabfix/pkg/fixer"
	"github.com/stackvity/arabfix/pkg/fixer/encoding"
	"github.com/stackvity/arabfix/pkg/fixer/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func cp1256(t *testing.T, s string) []byte {
	t.Helper()
	b, err := charmap.Windows1256.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func newEngine(t *testing.T, opts fixer.Options) *fixer.Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger, _ = testutil.NewBufferLogger()
	}
	engine, err := fixer.NewEngine(opts)
	require.NoError(t, err)
	return engine
}

func TestNewEngine_Defaults(t *testing.T) {
	engine := newEngine(t, fixer.Options{})
	opts := engine.Options()

	assert.Equal(t, ".", opts.Dir)
	assert.Equal(t, "*.html", opts.Pattern)
	assert.Equal(t, fixer.PipelineProbe, opts.Pipeline)
	assert.Equal(t, fixer.OnErrorContinue, opts.OnErrorMode)
	assert.Equal(t, fixer.DefaultProbeEncodings(), opts.Probe.Encodings)
	assert.Equal(t, fixer.DefaultMarkers(), opts.Probe.Markers)
	assert.Nil(t, engine.Processor().Table())

	patch := newEngine(t, fixer.Options{Pipeline: fixer.PipelinePatch})
	assert.Equal(t, signature.DefaultTable(), patch.Processor().Table())
	assert.Equal(t, "crlf", patch.Options().Patch.Newline)
}

func TestNewEngine_Validation(t *testing.T) {
	handler, _ := testutil.NewBufferLogger()
	tests := []struct {
		name    string
		opts    fixer.Options
		wantErr error
	}{
		{"nil logger", fixer.Options{}, fixer.ErrConfigValidation},
		{"unknown pipeline", fixer.Options{Logger: handler, Pipeline: "guess"}, fixer.ErrConfigValidation},
		{"bad onError", fixer.Options{Logger: handler, OnErrorMode: "retry"}, fixer.ErrConfigValidation},
		{"bad pattern", fixer.Options{Logger: handler, Pattern: "[html"}, fixer.ErrConfigValidation},
		{"unknown encoding", fixer.Options{Logger: handler, Probe: fixer.ProbeOptions{Encodings: []string{"cp9999"}}}, encoding.ErrUnknownEncoding},
		{"bad newline", fixer.Options{Logger: handler, Pipeline: fixer.PipelinePatch, Patch: fixer.PatchOptions{Newline: "cr"}}, fixer.ErrConfigValidation},
		{"missing table file", fixer.Options{Logger: handler, Pipeline: fixer.PipelinePatch, Patch: fixer.PatchOptions{TableFile: "/nonexistent/rules.yaml"}}, signature.ErrTableLoad},
		{"empty inline rule", fixer.Options{Logger: handler, Pipeline: fixer.PipelinePatch, Patch: fixer.PatchOptions{Rules: []signature.Rule{{From: "", To: "x"}}}}, signature.ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixer.NewEngine(tt.opts)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDiscover_NonRecursiveSorted(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(dir, "b.html"), []byte("b"))
	testutil.CreateDummyFile(t, filepath.Join(dir, "a.html"), []byte("a"))
	testutil.CreateDummyFile(t, filepath.Join(dir, "c.htm"), []byte("c"))
	testutil.CreateDummyFile(t, filepath.Join(dir, "nested", "d.html"), []byte("d"))
	testutil.CreateDummyDir(t, filepath.Join(dir, "folder.html"))

	files, err := newEngine(t, fixer.Options{Dir: dir}).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html")}, files)
}

func TestRun_ProbeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "store.html")
	plain := filepath.Join(dir, "plain.html")
	testutil.CreateDummyFile(t, legacy, cp1256(t, "<title>المتجر</title>\r\n"))
	testutil.CreateDummyFile(t, plain, []byte("<p>hello</p>"))

	report, err := newEngine(t, fixer.Options{Dir: dir, Pipeline: fixer.PipelineProbe}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.TotalFiles)
	assert.Equal(t, 2, report.Summary.SucceededCount)
	assert.Equal(t, 1, report.Summary.FallbackCount)
	assert.Equal(t, 1, report.Summary.ChangedCount)
	assert.Zero(t, report.Summary.FailedCount)

	// Sorted: plain.html before store.html.
	require.Len(t, report.Files, 2)
	assert.Equal(t, fixer.StatusFallback, report.Files[0].Status)
	assert.Equal(t, "utf-8", report.Files[0].Encoding)
	assert.False(t, report.Files[0].Changed)
	assert.Equal(t, fixer.StatusSuccess, report.Files[1].Status)
	assert.Equal(t, "cp1256", report.Files[1].Encoding)
	assert.True(t, report.Files[1].Changed)

	out := testutil.ReadFile(t, legacy)
	assert.Equal(t, "<title>المتجر</title>\r\n", string(out), "probe keeps line endings")
}

func TestRun_PatchEndToEnd(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	testutil.CreateDummyFile(t, page, []byte("\ufeff<h1>??ğŸ“Š Reports ????</h1>\n<p>ok</p>\n"))

	report, err := newEngine(t, fixer.Options{Dir: dir, Pipeline: fixer.PipelinePatch}).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Files, 1)

	outcome := report.Files[0]
	assert.Equal(t, fixer.StatusSuccess, outcome.Status)
	assert.Equal(t, "utf-8", outcome.Encoding)
	assert.Equal(t, 2, outcome.Substitutions)
	assert.True(t, outcome.BOMStripped)

	out := string(testutil.ReadFile(t, page))
	assert.Equal(t, "<h1>ğŸ“Š Reports </h1>\r\n<p>ok</p>\r\n", out)
	assert.NotContains(t, out, "????")
}

func TestRun_PatchTableFromFile(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.yaml")
	testutil.CreateDummyFile(t, rules, []byte("rules:\n  - from: \"foo\"\n    to: \"bar\"\n"))
	page := filepath.Join(dir, "a.html")
	testutil.CreateDummyFile(t, page, []byte("foo ??\n"))

	opts := fixer.Options{Dir: dir, Pipeline: fixer.PipelinePatch, Patch: fixer.PatchOptions{TableFile: rules, Newline: "lf"}}
	_, err := newEngine(t, opts).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "bar ??\n", string(testutil.ReadFile(t, page)), "file table replaces the default one")
}

func statAll(t *testing.T, mfs *testutil.MockFileSystem, paths ...string) {
	t.Helper()
	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		mfs.On("Stat", p).Return(info, nil)
	}
}

func TestRun_WriteFailureIsIsolated(t *testing.T) {
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html"), filepath.Join(dir, "c.html")
	for _, p := range []string{a, b, c} {
		testutil.CreateDummyFile(t, p, cp1256(t, "الموقع"))
	}

	mfs := new(testutil.MockFileSystem)
	statAll(t, mfs, a, b, c)
	mfs.On("ReadFile", mock.Anything).Return(cp1256(t, "الموقع"), nil)
	mfs.On("WriteFile", a, mock.Anything, mock.Anything).Return(nil)
	mfs.On("WriteFile", b, mock.Anything, mock.Anything).Return(&fs.PathError{Op: "open", Path: b, Err: fs.ErrPermission})
	mfs.On("WriteFile", c, mock.Anything, mock.Anything).Return(nil)

	report, err := newEngine(t, fixer.Options{Dir: dir, FileSystem: mfs}).Run(context.Background())
	require.NoError(t, err, "per-file failures are not fatal")

	assert.Equal(t, 2, report.Summary.SucceededCount)
	assert.Equal(t, 1, report.Summary.FailedCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, b, report.Errors[0].Path)
	assert.ErrorIs(t, report.Files[1].Err(), fixer.ErrWriteFailed)
	assert.ErrorIs(t, report.Files[1].Err(), fs.ErrPermission)

	mfs.AssertCalled(t, "WriteFile", c, []byte("الموقع"), os.FileMode(0644))
	mfs.AssertNumberOfCalls(t, "WriteFile", 3)
}

func TestRun_OnErrorStop(t *testing.T) {
	dir := t.TempDir()
	a, b, c := filepath.Join(dir, "a.html"), filepath.Join(dir, "b.html"), filepath.Join(dir, "c.html")
	for _, p := range []string{a, b, c} {
		testutil.CreateDummyFile(t, p, []byte("x"))
	}

	mfs := new(testutil.MockFileSystem)
	statAll(t, mfs, a, b, c)
	mfs.On("ReadFile", a).Return([]byte("x"), nil)
	mfs.On("WriteFile", a, mock.Anything, mock.Anything).Return(nil)
	mfs.On("ReadFile", b).Return(nil, fs.ErrPermission)

	report, err := newEngine(t, fixer.Options{Dir: dir, FileSystem: mfs, OnErrorMode: fixer.OnErrorStop}).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, fixer.ErrReadFailed)
	assert.True(t, report.Summary.Stopped)
	assert.Equal(t, 2, report.Summary.TotalFiles)
	mfs.AssertNotCalled(t, "ReadFile", c)
}

func TestRun_DryRunLeavesFilesUntouched(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "a.html")
	original := cp1256(t, "<b>الم</b>")
	testutil.CreateDummyFile(t, page, original)

	report, err := newEngine(t, fixer.Options{Dir: dir, DryRun: true}).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Summary.DryRun)
	assert.True(t, report.Files[0].Changed)
	assert.Equal(t, "cp1256", report.Files[0].Encoding)
	assert.Equal(t, original, testutil.ReadFile(t, page))
}

func TestRun_VerifyDetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "a.html")
	testutil.CreateDummyFile(t, page, []byte("<p>الم</p>"))

	mfs := new(testutil.MockFileSystem)
	statAll(t, mfs, page)
	mfs.On("ReadFile", page).Return([]byte("<p>الم</p>"), nil).Once()
	mfs.On("ReadFile", page).Return([]byte("<p>truncated"), nil).Once()
	mfs.On("WriteFile", page, mock.Anything, mock.Anything).Return(nil)

	report, err := newEngine(t, fixer.Options{Dir: dir, FileSystem: mfs, Verify: true}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.Equal(t, fixer.StatusFailed, report.Files[0].Status)
	assert.ErrorIs(t, report.Files[0].Err(), fixer.ErrVerifyFailed)
	mfs.AssertExpectations(t)
}

func TestRun_VerifyPassesOnDisk(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(dir, "a.html"), cp1256(t, "الم"))

	report, err := newEngine(t, fixer.Options{Dir: dir, Verify: true}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.SucceededCount)
}

func TestRun_SkipsBinary(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "image.html")
	payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x00, 0x00, 0x0D}
	testutil.CreateDummyFile(t, img, payload)

	report, err := newEngine(t, fixer.Options{Dir: dir, SkipBinary: true}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.SkippedCount)
	require.Len(t, report.SkippedFiles, 1)
	assert.Equal(t, fixer.SkipReasonBinary, report.SkippedFiles[0].Reason)
	assert.ErrorIs(t, report.Files[0].Err(), fixer.ErrBinaryFile)
	assert.Equal(t, payload, testutil.ReadFile(t, img))
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(dir, "a.html"), []byte("x"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newEngine(t, fixer.Options{Dir: dir}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Summary.Stopped)
	assert.Zero(t, report.Summary.TotalFiles)
}

func TestRun_Hooks(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "a.html")
	testutil.CreateDummyFile(t, page, cp1256(t, "الم"))

	hooks := new(testutil.MockHooks)
	hooks.On("OnFileDiscovered", page).Return(nil).Once()
	hooks.On("OnFileStatusUpdate", page, fixer.StatusProcessing, "", time.Duration(0)).Return(nil).Once()
	hooks.On("OnFileStatusUpdate", page, fixer.StatusSuccess, "cp1256", mock.AnythingOfType("time.Duration")).Return(nil).Once()
	hooks.On("OnRunComplete", mock.MatchedBy(func(r fixer.Report) bool {
		return r.Summary.SucceededCount == 1 && r.Summary.Pipeline == fixer.PipelineProbe
	})).Return(nil).Once()

	_, err := newEngine(t, fixer.Options{Dir: dir, EventHooks: hooks}).Run(context.Background())
	require.NoError(t, err)
	hooks.AssertExpectations(t)
}

func TestDiscover_DirWithGlobMetacharacters(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "site [old]")
	testutil.CreateDummyFile(t, filepath.Join(dir, "a.html"), []byte("a"))

	files, err := newEngine(t, fixer.Options{Dir: dir}).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.html")}, files)
}

func TestDiscover_SkipsDotfiles(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateDummyFile(t, filepath.Join(dir, "a.html"), []byte("a"))
	testutil.CreateDummyFile(t, filepath.Join(dir, ".hidden.html"), []byte("h"))

	files, err := newEngine(t, fixer.Options{Dir: dir}).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.html")}, files)

	files, err = newEngine(t, fixer.Options{Dir: dir, Pattern: ".*.html"}).Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".hidden.html")}, files, "a dot pattern selects dotfiles")
}

func TestRun_DiscoveryFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	hooks := new(testutil.MockHooks)
	report, err := newEngine(t, fixer.Options{Dir: missing, EventHooks: hooks}).Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, fixer.ErrDiscoveryFailed)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.True(t, report.Summary.Stopped)
	hooks.AssertNotCalled(t, "OnRunComplete", mock.Anything)
	hooks.AssertNotCalled(t, "OnFileDiscovered", mock.Anything)
}

func TestRun_NULBytesProcessedByDefault(t *testing.T) {
	dir := t.TempDir()
	page := filepath.Join(dir, "utf16.html")
	// "<p>ok</p>" as UTF-16LE
	content := []byte{'<', 0, 'p', 0, '>', 0, 'o', 0, 'k', 0, '<', 0, '/', 0, 'p', 0, '>', 0}
	testutil.CreateDummyFile(t, page, content)

	report, err := newEngine(t, fixer.Options{Dir: dir, SkipBinary: fixer.DefaultSkipBinary}).Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.Summary.SkippedCount)
	assert.Equal(t, 1, report.Summary.SucceededCount)
	assert.Equal(t, 1, report.Summary.FallbackCount)
	assert.Equal(t, fixer.StatusFallback, report.Files[0].Status)
}
