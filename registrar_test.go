package dlhelper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanbriolat/dlhelper/generic"
	"github.com/alanbriolat/dlhelper/internal/pubsub"
)

func newTestRegistrar(t *testing.T) (*Registrar, *fakePlatform) {
	platform := &fakePlatform{badge: true, dir: t.TempDir()}
	r := NewRegistrar(Config{Platform: platform, Reservations: NewPathReservations()})
	return r, platform
}

func receiveEvent(t *testing.T, r pubsub.Receiver[Event]) Event {
	t.Helper()
	select {
	case e, ok := <-r.Receive():
		require.True(t, ok, "event channel closed")
		return e
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for event")
		return nil
	}
}

func TestRegisterTwoItems(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("persist:test")
	window := newFakeWindow(session)
	var recorder callbackRecorder

	reg, err := r.Register(session, Options{}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	item1 := newFakeItem("one.bin", "application/octet-stream", 100)
	item2 := newFakeItem("two.bin", "application/octet-stream", 200)
	session.start(item1, window.Contents())
	session.start(item2, window.Contents())
	counters, active := reg.Counters()
	assert.Equal(ByteCounters{Total: 300}, counters)
	assert.Equal(2, active)
	assert.Equal(filepath.Join(platform.dir, "one.bin"), item1.SavePath())
	assert.Equal(filepath.Join(platform.dir, "two.bin"), item2.SavePath())

	item1.progress(100)
	assert.InDelta(100.0/300.0, window.progressValues()[0], 1e-9)

	item1.finish(ItemStateCompleted)
	counters, active = reg.Counters()
	assert.Equal(ByteCounters{Received: 100, Completed: 100, Total: 300}, counters)
	assert.Equal(1, active)

	item2.progress(50)
	counters, _ = reg.Counters()
	assert.Equal(int64(150), counters.Received)
	item2.progress(200)
	item2.finish(ItemStateCompleted)

	counters, active = reg.Counters()
	assert.Equal(ByteCounters{}, counters)
	assert.Equal(0, active)
	assert.Equal([]float64{100.0 / 300.0, 150.0 / 300.0, 1, ProgressBarNone}, window.progressValues())
	assert.Equal([]int{2, 1, 1, 1, 0}, platform.badgeCounts())
	assert.Equal([]string{item1.SavePath(), item2.SavePath()}, platform.finished)

	calls := recorder.calls()
	if assert.Len(calls, 2) {
		assert.Equal(Item(item1), calls[0].item)
		assert.NoError(calls[0].err)
		assert.Equal(Item(item2), calls[1].item)
	}
	assert.Equal(0, item1.updated.len())
	assert.Equal(0, item1.done.len())
}

func TestCountersResetAfterManyItems(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	window := newFakeWindow(session)
	reg, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)
	defer reg.Close()

	var items []*fakeItem
	var sum int64
	for i, total := range []int64{7, 0, 1024, 3, 99999} {
		item := newFakeItem(string(rune('a'+i))+".bin", "", total)
		items = append(items, item)
		sum += total
		session.start(item, window.Contents())
	}
	var completed int64
	for _, item := range items {
		item.progress(item.total / 2)
		for _, v := range window.progressValues() {
			assert.GreaterOrEqual(v, 0.0)
			assert.LessOrEqual(v, 1.0)
		}
		counters, _ := reg.Counters()
		assert.Equal(sum, counters.Total)
		item.finish(ItemStateCompleted)
		completed += item.total
		if counters, active := reg.Counters(); active > 0 {
			assert.Equal(completed, counters.Completed)
		}
	}
	counters, active := reg.Counters()
	assert.Equal(ByteCounters{}, counters)
	assert.Equal(0, active)
}

func TestOnProgressIsPerItem(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	var progress []Progress
	var started []Item
	reg, err := r.Register(session, Options{
		OnStarted:  func(item Item) { started = append(started, item) },
		OnProgress: func(p Progress) { progress = append(progress, p) },
	}, nil)
	require.NoError(t, err)
	defer reg.Close()

	sized := newFakeItem("sized.bin", "", 200)
	unsized := newFakeItem("unsized.bin", "", 0)
	session.start(sized, nil)
	session.start(unsized, nil)
	sized.progress(50)
	unsized.progress(70)

	assert.Equal([]Item{sized, unsized}, started)
	assert.Equal([]Progress{
		{Percent: 0.25, TransferredBytes: 50, TotalBytes: 200},
		{Percent: 0, TransferredBytes: 70, TotalBytes: 0},
	}, progress)
}

func TestIndeterminateProgress(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	window := newFakeWindow(session)
	reg, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("stream", "", 0)
	session.start(item, window.Contents())
	item.progress(10)
	item.finish(ItemStateCompleted)
	assert.Equal([]float64{ProgressBarIndeterminate, ProgressBarNone}, window.progressValues())
}

func TestCancelledItem(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	var recorder callbackRecorder
	var cancelled []Item
	reg, err := r.Register(session, Options{OnCancel: func(item Item) { cancelled = append(cancelled, item) }}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("a.zip", "application/zip", 10)
	session.start(item, nil)
	item.finish(ItemStateCancelled)

	assert.Equal([]Item{item}, cancelled)
	assert.Empty(recorder.calls())
	assert.Empty(platform.dialogs)
	assert.Empty(platform.finished)
	assert.Equal(0, r.config.Reservations.Count())
}

func TestInterruptedItem(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	var recorder callbackRecorder
	reg, err := r.Register(session, Options{ErrorTitle: "Oops", ErrorMessage: "{filename} failed, {reason}"}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("a.zip", "application/zip", 10)
	session.start(item, nil)
	item.progress(5)
	item.finish(ItemStateInterrupted)

	assert.Equal([]fakeDialog{{"Oops", "a.zip failed, {reason}"}}, platform.dialogs)
	calls := recorder.calls()
	if assert.Len(calls, 1) {
		assert.Nil(calls[0].item)
		assert.ErrorIs(calls[0].err, ErrInterrupted)
		var interrupted *InterruptedError
		if assert.ErrorAs(calls[0].err, &interrupted) {
			assert.Equal("a.zip", interrupted.Filename)
			assert.Equal("a.zip failed, {reason}", interrupted.Error())
		}
	}
}

func TestInterruptedDefaultMessage(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("file.zip", "", 10)
	session.start(item, nil)
	item.finish(ItemStateInterrupted)
	assert.Equal([]fakeDialog{{DefaultErrorTitle, "The download of file.zip was interrupted"}}, platform.dialogs)
}

func TestUnregisterWhenDone(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	var recorder callbackRecorder
	reg, err := r.Register(session, Options{UnregisterWhenDone: true}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	first := newFakeItem("first.bin", "", 1)
	session.start(first, nil)
	assert.True(reg.Attached())
	first.finish(ItemStateCompleted)
	assert.False(reg.Attached())
	assert.Equal(0, session.willDownload.len())

	second := newFakeItem("second.bin", "", 1)
	session.start(second, nil)
	assert.Equal("", second.SavePath())
	assert.Equal(0, reg.ActiveCount())
	assert.Len(recorder.calls(), 1)
}

func TestPersistentRegistration(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)

	first := newFakeItem("first.bin", "", 1)
	session.start(first, nil)
	first.finish(ItemStateCompleted)
	assert.True(reg.Attached())

	second := newFakeItem("second.bin", "", 1)
	session.start(second, nil)
	assert.NotEqual("", second.SavePath())

	reg.Close()
	reg.Close()
	assert.False(reg.Attached())
	assert.Equal(0, session.willDownload.len())
}

func TestDestroyedWindow(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	window := newFakeWindow(session)
	var recorder callbackRecorder
	var progress []Progress
	reg, err := r.Register(session, Options{OnProgress: func(p Progress) { progress = append(progress, p) }}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("a.bin", "", 10)
	session.start(item, window.Contents())
	window.destroy()
	item.progress(5)
	item.finish(ItemStateCompleted)

	assert.Empty(window.progressValues())
	assert.Equal([]int{1, 0}, platform.badgeCounts())
	assert.Len(progress, 1)
	assert.Len(recorder.calls(), 1)
	counters, active := reg.Counters()
	assert.Equal(ByteCounters{}, counters)
	assert.Equal(0, active)
}

func TestNoWindow(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	var recorder callbackRecorder
	reg, err := r.Register(session, Options{}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("a.bin", "", 10)
	session.start(item, &fakeContents{kind: ContentKindWebview})
	item.progress(5)
	item.finish(ItemStateCompleted)
	assert.Len(recorder.calls(), 1)
}

func TestBadgeDisabled(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{ShowBadge: generic.Some(false)}, nil)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("a.bin", "", 10)
	session.start(item, nil)
	item.progress(5)
	item.finish(ItemStateCompleted)
	assert.Empty(platform.badgeCounts())

	platform.badge = false
	reg2, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)
	defer reg2.Close()
	item = newFakeItem("b.bin", "", 10)
	session.start(item, nil)
	item.finish(ItemStateCompleted)
	assert.Empty(platform.badgeCounts())
}

func TestOpenFolderWhenDone(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{OpenFolderWhenDone: true}, nil)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("report", "application/pdf", 10)
	session.start(item, nil)
	item.SetSavePath(filepath.Join(platform.dir, "elsewhere.pdf"))
	item.finish(ItemStateCompleted)
	assert.Equal([]string{filepath.Join(platform.dir, "elsewhere.pdf")}, platform.revealed)
}

func TestSaveAsLeavesPathUnset(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{SaveAs: true}, nil)
	require.NoError(t, err)
	defer reg.Close()

	events, err := reg.Subscribe()
	require.NoError(t, err)
	item := newFakeItem("a.bin", "", 10)
	session.start(item, nil)
	assert.Equal("", item.SavePath())
	started, ok := receiveEvent(t, events).(ItemStarted)
	if assert.True(ok) {
		assert.Equal(filepath.Join(r.config.Platform.(*fakePlatform).dir, "a.bin"), started.SavePath)
	}
}

func TestSavePathResolution(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)
	defer reg.Close()
	require.NoError(t, os.WriteFile(filepath.Join(platform.dir, "existing.pdf"), nil, 0644))

	cases := []struct {
		filename string
		mimeType string
		expected string
	}{
		{"report", "application/pdf", "report.pdf"},
		{"report", "application/pdf", "report (1).pdf"},
		{"notes", "text/plain", "notes"},
		{"photo", "image/jpeg", "photo"},
		{"blob", "application/x-unknown", "blob"},
		{"existing.pdf", "application/pdf", "existing (1).pdf"},
		{"../../escape.txt", "text/plain", "escape.txt"},
		{"", "application/zip", "download.zip"},
	}
	for _, c := range cases {
		item := newFakeItem(c.filename, c.mimeType, 1)
		session.start(item, nil)
		assert.Equal(filepath.Join(platform.dir, c.expected), item.SavePath(), c.filename)
	}
}

func TestFilenameOverride(t *testing.T) {
	assert := assert_.New(t)
	r, platform := newTestRegistrar(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fixed.bin"), nil, 0644))
	session := newFakeSession("")
	reg, err := r.Register(session, Options{Directory: dir, Filename: "fixed.bin"}, nil)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("report", "application/pdf", 1)
	session.start(item, nil)
	assert.Equal(filepath.Join(dir, "fixed.bin"), item.SavePath())
	assert.NotEqual(platform.dir, dir)
	assert.Equal(0, r.config.Reservations.Count())
}

func TestWebview(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("persist:view")
	window := newFakeWindow(newFakeSession(""))
	webview := window.newFakeWebview(session)
	var recorder callbackRecorder

	item := newFakeItem("a.bin", "", 10)
	reg, err := r.Register(nil, Options{
		UnregisterWhenDone: true,
		Webview:            &WebviewDownload{Event: &WillDownloadEvent{Item: item, Source: webview}},
	}, recorder.callback)
	require.NoError(t, err)
	defer reg.Close()

	assert.False(reg.Attached())
	assert.Equal(0, session.willDownload.len())
	assert.Equal(1, reg.ActiveCount())
	assert.NotEqual("", item.SavePath())

	item.progress(5)
	item.finish(ItemStateCompleted)
	assert.Equal([]float64{0.5, ProgressBarNone}, window.progressValues())
	assert.Len(recorder.calls(), 1)
}

func TestWebviewExplicitHost(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	window := newFakeWindow(newFakeSession(""))
	other := newFakeWindow(newFakeSession(""))
	item := newFakeItem("a.bin", "", 10)

	reg, err := r.HandleWebview(Options{Webview: &WebviewDownload{
		Event: &WillDownloadEvent{Item: item, Source: other.newFakeWebview(nil)},
		Host:  window.Contents(),
	}}, nil)
	require.NoError(t, err)
	defer reg.Close()
	item.progress(10)
	assert.Equal([]float64{1}, window.progressValues())
	assert.Empty(other.progressValues())
}

func TestRegisterErrors(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)

	_, err := r.Register(nil, Options{}, nil)
	assert.ErrorIs(err, ErrNilSession)
	_, err = r.HandleWebview(Options{}, nil)
	assert.ErrorIs(err, ErrNoWebview)
	_, err = r.HandleWebview(Options{Webview: &WebviewDownload{Event: &WillDownloadEvent{}}}, nil)
	assert.ErrorIs(err, ErrNoWebview)
}

func TestDuplicateStartIgnored(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	var started int
	reg, err := r.Register(session, Options{OnStarted: func(Item) { started++ }}, nil)
	require.NoError(t, err)
	defer reg.Close()

	item := newFakeItem("a.bin", "", 10)
	session.start(item, nil)
	session.start(item, nil)
	assert.Equal(1, started)
	counters, active := reg.Counters()
	assert.Equal(int64(10), counters.Total)
	assert.Equal(1, active)
}

func TestRegistrationEvents(t *testing.T) {
	assert := assert_.New(t)
	r, _ := newTestRegistrar(t)
	session := newFakeSession("")
	reg, err := r.Register(session, Options{}, nil)
	require.NoError(t, err)

	events, err := reg.Subscribe()
	require.NoError(t, err)
	done, err := reg.SubscribeFiltered(func(e Event) bool {
		_, ok := e.(ItemDone)
		return ok
	})
	require.NoError(t, err)

	item := newFakeItem("a.bin", "", 10)
	session.start(item, nil)
	item.progress(4)
	item.finish(ItemStateInterrupted)

	started := receiveEvent(t, events).(ItemStarted)
	assert.Equal(reg.ID, started.Registration())
	assert.Equal(Item(item), started.Item())
	assert.Equal(ByteCounters{Total: 10}, started.Counters)

	updated := receiveEvent(t, events).(ItemUpdated)
	assert.Equal(ByteCounters{Total: 10}, updated.OldCounters)
	assert.Equal(ByteCounters{Received: 4, Total: 10}, updated.NewCounters)
	assert.Equal(Progress{Percent: 0.4, TransferredBytes: 4, TotalBytes: 10}, updated.Progress)
	assert.Equal(1, updated.ActiveCount)

	finished := receiveEvent(t, events).(ItemDone)
	assert.Equal(ItemStateInterrupted, finished.State)
	assert.ErrorIs(finished.Err, ErrInterrupted)
	assert.Equal(ByteCounters{}, finished.NewCounters)
	assert.Equal(0, finished.ActiveCount)

	assert.IsType(ItemDone{}, receiveEvent(t, done))

	reg.Close()
	_, ok := <-events.Receive()
	assert.False(ok)
	_, err = reg.Subscribe()
	assert.Error(err)
}
