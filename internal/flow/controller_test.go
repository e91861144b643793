package flow

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/kbmedia/soundsbot/core/logger"
	"github.com/kbmedia/soundsbot/internal/media"
	"github.com/kbmedia/soundsbot/internal/session"
)

func TestMain(m *testing.M) {
	_ = logger.InitLogger(nil)
	os.Exit(m.Run())
}

type audioSend struct {
	path, title, performer, caption string
}

type fakeReplier struct {
	mu      sync.Mutex
	sends   []string
	edits   []string
	notices []string
	audio   []audioSend
	video   []string

	videoErr error
	audioErr error
}

func (r *fakeReplier) Send(text string, _ *tele.ReplyMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, text)
	return nil
}

func (r *fakeReplier) Edit(text string, _ *tele.ReplyMarkup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.edits = append(r.edits, text)
	return nil
}

func (r *fakeReplier) Notify(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, text)
	return nil
}

func (r *fakeReplier) SendAudio(path, title, performer, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.audioErr != nil {
		return r.audioErr
	}
	r.audio = append(r.audio, audioSend{path, title, performer, caption})
	return nil
}

func (r *fakeReplier) SendVideo(path, caption string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.videoErr != nil {
		return r.videoErr
	}
	r.video = append(r.video, path)
	return nil
}

func (r *fakeReplier) videoCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.video)
}

func (r *fakeReplier) noticeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices)
}

type fakeProber struct {
	info  media.Info
	err   error
	calls int
}

func (p *fakeProber) Probe(_ context.Context, _ string) (media.Info, error) {
	p.calls++
	return p.info, p.err
}

type fakeDownloader struct {
	mu          sync.Mutex
	dir         string
	audioErr    error
	videoErr    error
	audioCalls  int
	videoCalls  int
	videoDelay  time.Duration
	lastCreated string
}

func (d *fakeDownloader) materialize(t string) (string, error) {
	f, err := os.CreateTemp(d.dir, t+"-*.bin")
	if err != nil {
		return "", err
	}
	_ = f.Close()
	d.lastCreated = f.Name()
	return f.Name(), nil
}

func (d *fakeDownloader) DownloadAudio(_ context.Context, _ string, _ int64) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.audioCalls++
	if d.audioErr != nil {
		return "", d.audioErr
	}
	return d.materialize("audio")
}

func (d *fakeDownloader) DownloadVideo(_ context.Context, _ string, _ int64, _ int) (string, error) {
	d.mu.Lock()
	d.videoCalls++
	delay := d.videoDelay
	d.mu.Unlock()
	time.Sleep(delay)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.videoErr != nil {
		return "", d.videoErr
	}
	return d.materialize("video")
}

func (d *fakeDownloader) calls() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.audioCalls, d.videoCalls
}

type tagWrite struct {
	path, title, artist string
}

type fakeTagWriter struct {
	mu     sync.Mutex
	writes []tagWrite
	err    error
}

func (w *fakeTagWriter) Write(path, title, artist string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.writes = append(w.writes, tagWrite{path, title, artist})
	return w.err
}

type fakeRecorder struct {
	mu         sync.Mutex
	registered []int64
	delivered  []string // destination values
}

func (r *fakeRecorder) Register(_ context.Context, u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = append(r.registered, u.ID)
}

func (r *fakeRecorder) Delivered(_ context.Context, _ User, _, _, destination string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delivered = append(r.delivered, destination)
}

type fixture struct {
	ctrl   *Controller
	store  *session.Store
	prober *fakeProber
	dl     *fakeDownloader
	tags   *fakeTagWriter
	rec    *fakeRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := session.NewStore()
	prober := &fakeProber{info: media.Info{
		Title:    "Track",
		Uploader: "Uploader",
		Duration: 3 * time.Minute,
	}}
	dl := &fakeDownloader{dir: t.TempDir()}
	tw := &fakeTagWriter{}
	rec := &fakeRecorder{}
	cfg := media.Config{DownloadDir: t.TempDir()}
	return &fixture{
		ctrl:   NewController(cfg, store, prober, dl, tw, rec),
		store:  store,
		prober: prober,
		dl:     dl,
		tags:   tw,
		rec:    rec,
	}
}

var testUser = User{ID: 10, Username: "u", FirstName: "U"}

func TestLinkTooLongNothingDownloaded(t *testing.T) {
	fx := newFixture(t)
	fx.prober.info.Duration = 25 * time.Minute

	r := &fakeReplier{}
	if err := fx.ctrl.HandleLink(context.Background(), testUser, "https://youtu.be/x", r); err != nil {
		t.Fatalf("HandleLink: %v", err)
	}

	if _, ok := fx.store.Get(testUser.ID); ok {
		t.Errorf("no session must be created for an over-limit link")
	}
	if a, v := fx.dl.calls(); a != 0 || v != 0 {
		t.Errorf("downloader called: audio=%d video=%d", a, v)
	}
	last := r.edits[len(r.edits)-1]
	if !strings.Contains(last, "слишком длинное") {
		t.Errorf("rejection text = %q", last)
	}
}

func TestLinkOpensFormatMenu(t *testing.T) {
	fx := newFixture(t)
	r := &fakeReplier{}
	if err := fx.ctrl.HandleLink(context.Background(), testUser, "https://youtu.be/x", r); err != nil {
		t.Fatalf("HandleLink: %v", err)
	}

	sess, ok := fx.store.Get(testUser.ID)
	if !ok || sess.Stage != session.StageChoosingFormat {
		t.Fatalf("session = %+v ok=%v", sess, ok)
	}
	if sess.Title != "Track" || sess.Uploader != "Uploader" {
		t.Errorf("probed metadata not kept: %+v", sess)
	}
}

func TestExpiredFormatButton(t *testing.T) {
	fx := newFixture(t)
	r := &fakeReplier{}
	if err := fx.ctrl.ChooseMP3(context.Background(), testUser, r); err != nil {
		t.Fatalf("ChooseMP3: %v", err)
	}

	if r.noticeCount() != 1 {
		t.Fatalf("notices = %d, want 1", r.noticeCount())
	}
	if a, v := fx.dl.calls(); a != 0 || v != 0 {
		t.Errorf("collaborators called on expired button: audio=%d video=%d", a, v)
	}
	if fx.prober.calls != 0 {
		t.Errorf("prober called on expired button")
	}
}

func TestMP3EditedFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := &fakeReplier{}

	if err := fx.ctrl.HandleLink(ctx, testUser, "https://youtu.be/x", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.ChooseMP3(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}

	sess, _ := fx.store.Get(testUser.ID)
	if sess.Stage != session.StageAwaitingMetadataChoice {
		t.Fatalf("stage = %v", sess.Stage)
	}
	filePath := sess.FilePath

	if err := fx.ctrl.AcceptMetadata(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.HandleText(ctx, testUser, "Новое название", r); err != nil {
		t.Fatal(err)
	}
	sess, _ = fx.store.Get(testUser.ID)
	if sess.Stage != session.StageAwaitingArtist || sess.NewTitle != "Новое название" {
		t.Fatalf("after title: %+v", sess)
	}
	if sess.URL == "" || sess.Title != "Track" {
		t.Errorf("link metadata lost across text stages: %+v", sess)
	}

	if err := fx.ctrl.HandleText(ctx, testUser, "Исполнитель", r); err != nil {
		t.Fatal(err)
	}

	if len(fx.tags.writes) != 1 {
		t.Fatalf("tag writes = %d, want 1", len(fx.tags.writes))
	}
	w := fx.tags.writes[0]
	if w.title != "Новое название" || w.artist != "Исполнитель" || w.path != filePath {
		t.Errorf("tag write = %+v", w)
	}
	if len(r.audio) != 1 {
		t.Fatalf("audio sends = %d, want 1", len(r.audio))
	}
	if r.audio[0].title != "Новое название" || r.audio[0].performer != "Исполнитель" {
		t.Errorf("audio send = %+v", r.audio[0])
	}
	if _, ok := fx.store.Get(testUser.ID); ok {
		t.Errorf("session must be gone after delivery")
	}
	if _, err := os.Stat(filePath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file not removed after delivery: %v", err)
	}
	if len(fx.rec.delivered) != 1 || fx.rec.delivered[0] != "mp3" {
		t.Errorf("history = %v", fx.rec.delivered)
	}
}

func TestDeclineMetadataSendsProbedTags(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := &fakeReplier{}

	if err := fx.ctrl.HandleLink(ctx, testUser, "https://youtu.be/x", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.ChooseMP3(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}
	sess, _ := fx.store.Get(testUser.ID)
	filePath := sess.FilePath

	if err := fx.ctrl.DeclineMetadata(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}

	if len(fx.tags.writes) != 1 || fx.tags.writes[0].title != "Track" || fx.tags.writes[0].artist != "Uploader" {
		t.Errorf("tag writes = %+v", fx.tags.writes)
	}
	if len(r.audio) != 1 || r.audio[0].title != "Track" {
		t.Errorf("audio = %+v", r.audio)
	}
	if _, err := os.Stat(filePath); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file not removed: %v", err)
	}
	if _, ok := fx.store.Get(testUser.ID); ok {
		t.Errorf("session must be gone")
	}
}

func TestTagWriteFailureDoesNotBlockDelivery(t *testing.T) {
	fx := newFixture(t)
	fx.tags.err = errors.New("corrupt frame")
	ctx := context.Background()
	r := &fakeReplier{}

	if err := fx.ctrl.HandleLink(ctx, testUser, "https://youtu.be/x", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.ChooseMP3(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.DeclineMetadata(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}
	if len(r.audio) != 1 {
		t.Fatalf("audio sends = %d, want 1 despite tag failure", len(r.audio))
	}
}

func TestDuplicateQualityButtonRace(t *testing.T) {
	fx := newFixture(t)
	fx.dl.videoDelay = 10 * time.Millisecond
	ctx := context.Background()
	r := &fakeReplier{}

	if err := fx.ctrl.HandleLink(ctx, testUser, "https://youtu.be/x", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.ChooseVideo(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fx.ctrl.ChooseQuality(ctx, testUser, "720p", r)
		}()
	}
	wg.Wait()

	if got := r.videoCount(); got != 1 {
		t.Errorf("video deliveries = %d, want exactly 1", got)
	}
	if got := r.noticeCount(); got != 1 {
		t.Errorf("expired notices = %d, want exactly 1", got)
	}
	if _, v := fx.dl.calls(); v != 1 {
		t.Errorf("video downloads = %d, want 1", v)
	}
	if _, ok := fx.store.Get(testUser.ID); ok {
		t.Errorf("session must be gone after the winning delivery")
	}
}

func TestVideoDeliveryFailureKeepsQualityMenu(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := &fakeReplier{videoErr: errors.New("telegram: entity too large")}

	if err := fx.ctrl.HandleLink(ctx, testUser, "https://youtu.be/x", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.ChooseVideo(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.ChooseQuality(ctx, testUser, "480p", r); err == nil {
		t.Fatalf("expected delivery error")
	}

	sess, ok := fx.store.Get(testUser.ID)
	if !ok || sess.Stage != session.StageChoosingQuality {
		t.Errorf("session = %+v ok=%v, want retained at quality menu", sess, ok)
	}
	if _, err := os.Stat(fx.dl.lastCreated); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("downloaded file must be removed even on failed delivery: %v", err)
	}
	if len(fx.rec.delivered) != 0 {
		t.Errorf("failed delivery must not enter history: %v", fx.rec.delivered)
	}
}

func TestUploadEditFlow(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := &fakeReplier{}

	upload := filepath.Join(t.TempDir(), "10_song.mp3")
	if err := os.WriteFile(upload, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := fx.ctrl.HandleUpload(ctx, testUser, upload, "song.mp3", r); err != nil {
		t.Fatal(err)
	}
	if fx.ctrl.AwaitingInput(testUser.ID) {
		t.Fatalf("upload stage must not await text yet")
	}
	if err := fx.ctrl.EditUploaded(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}
	if !fx.ctrl.AwaitingInput(testUser.ID) {
		t.Fatalf("title stage must await text")
	}
	if err := fx.ctrl.HandleText(ctx, testUser, "Title", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.HandleText(ctx, testUser, "Artist", r); err != nil {
		t.Fatal(err)
	}

	if len(r.audio) != 1 || r.audio[0].path != upload {
		t.Fatalf("audio = %+v", r.audio)
	}
	if _, err := os.Stat(upload); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("uploaded file not cleaned up: %v", err)
	}
	if len(fx.rec.delivered) != 0 {
		t.Errorf("upload flow must not enter download history: %v", fx.rec.delivered)
	}
}

func TestCancelDropsDialogAndFile(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := &fakeReplier{}

	upload := filepath.Join(t.TempDir(), "10_song.mp3")
	if err := os.WriteFile(upload, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.HandleUpload(ctx, testUser, upload, "song.mp3", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.Cancel(ctx, testUser, r); err != nil {
		t.Fatal(err)
	}

	if _, ok := fx.store.Get(testUser.ID); ok {
		t.Errorf("session must be gone after cancel")
	}
	if _, err := os.Stat(upload); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("file must be gone after cancel: %v", err)
	}
}

func TestFreshLinkReplacesUploadDialog(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	r := &fakeReplier{}

	upload := filepath.Join(t.TempDir(), "10_old.mp3")
	if err := os.WriteFile(upload, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.HandleUpload(ctx, testUser, upload, "old.mp3", r); err != nil {
		t.Fatal(err)
	}
	if err := fx.ctrl.HandleLink(ctx, testUser, "https://youtu.be/x", r); err != nil {
		t.Fatal(err)
	}

	sess, ok := fx.store.Get(testUser.ID)
	if !ok || sess.Stage != session.StageChoosingFormat || sess.Source != session.SourceLink {
		t.Fatalf("session = %+v ok=%v", sess, ok)
	}
	if _, err := os.Stat(upload); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stale upload not cleaned up: %v", err)
	}
}

func TestStartRegistersUser(t *testing.T) {
	fx := newFixture(t)
	r := &fakeReplier{}
	if err := fx.ctrl.Start(context.Background(), testUser, r); err != nil {
		t.Fatal(err)
	}
	if len(fx.rec.registered) != 1 || fx.rec.registered[0] != testUser.ID {
		t.Errorf("registered = %v", fx.rec.registered)
	}
	if len(r.sends) != 1 || !strings.Contains(r.sends[0], testUser.FirstName) {
		t.Errorf("greeting = %v", r.sends)
	}
}
