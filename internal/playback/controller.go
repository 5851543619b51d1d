// Package playback owns the single active queue, drives the media backend
// and keeps lyric state in step with the playback clock.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/cadence/cadence/internal/history"
	"github.com/cadence/cadence/internal/lyrics"
	"github.com/cadence/cadence/internal/media"
	"github.com/cadence/cadence/internal/provider"
	"github.com/cadence/cadence/internal/queue"
	"github.com/cadence/cadence/internal/store"
)

// PreviousRestartThreshold is how far into a track Previous restarts it
// instead of moving back.
const PreviousRestartThreshold = 3.0

// DefaultFetchTimeout bounds a single lyric lookup.
const DefaultFetchTimeout = 10 * time.Second

var ErrNoBackend = errors.New("playback: media backend is required")

// Options configures a Controller. Only Backend is required.
type Options struct {
	Backend media.Backend
	// Fetcher resolves lyrics. Nil disables lyrics.
	Fetcher provider.LyricsFetcher
	// Store persists volume and, with PersistQueue, the queue snapshot.
	Store        store.Store
	PersistQueue bool
	History      *history.Buffer
	Logger       *slog.Logger
	Shuffler     queue.Shuffler
	FetchTimeout time.Duration
	// InitialVolume in [0, 1] applies when no volume was persisted.
	InitialVolume float64
}

// Controller serializes every queue operation and backend event behind one
// mutex. Lyric fetches run in the background and are applied only while
// their track is still current.
type Controller struct {
	mu sync.Mutex

	backend      media.Backend
	fetcher      provider.LyricsFetcher
	store        store.Store
	persistQueue bool
	history      *history.Buffer
	logger       *slog.Logger
	fetchTimeout time.Duration

	queue    *queue.Queue
	loadedID string
	playing  bool
	elapsed  float64
	duration float64
	volume   float64
	lastErr  error

	// awaitingStart is set from a Load until the backend reports the file
	// started; clock and end events seen meanwhile belong to the old file.
	awaitingStart bool

	lyricSync    *lyrics.Synchronizer
	lyricsStatus LyricsStatus
	generation   uint64

	baseCtx context.Context
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// New builds a controller and applies the persisted volume to the backend.
func New(ctx context.Context, opts Options) (*Controller, error) {
	if opts.Backend == nil {
		return nil, ErrNoBackend
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.History == nil {
		opts.History = history.New()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	volume := opts.InitialVolume
	if volume <= 0 || volume > 1 {
		volume = 1
	}
	baseCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		backend:      opts.Backend,
		fetcher:      opts.Fetcher,
		store:        opts.Store,
		persistQueue: opts.PersistQueue,
		history:      opts.History,
		logger:       opts.Logger,
		fetchTimeout: opts.FetchTimeout,
		queue:        queue.NewWithShuffler(opts.Shuffler),
		volume:       volume,
		lyricSync:    lyrics.NewSynchronizer(lyrics.Document{}),
		baseCtx:      baseCtx,
		cancel:       cancel,
	}
	if v, ok := c.loadVolume(ctx); ok {
		c.volume = v
	}
	if err := c.backend.SetVolume(c.volume); err != nil {
		c.recordBackendError("set volume", err)
	}
	return c, nil
}

func (c *Controller) loadVolume(ctx context.Context) (float64, bool) {
	if c.store == nil {
		return 0, false
	}
	raw, ok, err := c.store.Get(ctx, store.KeyVolume)
	if err != nil {
		c.logger.Warn("load volume", slog.Any("err", err))
		return 0, false
	}
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 1 {
		c.logger.Warn("ignoring invalid persisted volume", slog.String("value", raw))
		return 0, false
	}
	return v, true
}

// Close abandons in-flight lyric fetches. No new fetch starts afterwards.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

// Wait blocks until every in-flight lyric fetch has been applied or
// discarded, or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PlayQueue replaces the queue with tracks and starts playing at startIndex.
// An empty list is ignored.
func (c *Controller) PlayQueue(ctx context.Context, tracks []provider.Track, startIndex int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(tracks) == 0 {
		return
	}
	c.recordOutgoing(ctx)
	c.queue.Replace(tracks, startIndex)
	c.logger.Info("queue replaced", slog.String("queue_id", c.queue.ID()), slog.Int("tracks", len(tracks)),
		slog.Bool("shuffled", c.queue.IsShuffled()))
	c.startCurrent()
	c.saveQueue(ctx)
}

// Next advances to the following track. At the end of the queue without
// repeat all playback stops and the position is kept.
func (c *Controller) Next(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.advance(ctx)
}

func (c *Controller) advance(ctx context.Context) {
	if c.queue.Len() == 0 {
		return
	}
	idx, ok := c.queue.NextIndex()
	if !ok {
		c.logger.Debug("end of queue reached")
		c.stop()
		return
	}
	c.switchTo(ctx, idx)
}

// Previous restarts the current track once it has played past the
// threshold, otherwise moves back one track. At the start of the queue
// without repeat all the current track restarts.
func (c *Controller) Previous(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.queue.Len() == 0 {
		return
	}
	if c.elapsed > PreviousRestartThreshold {
		c.restart()
		return
	}
	idx, ok := c.queue.PrevIndex()
	if !ok {
		c.restart()
		return
	}
	c.switchTo(ctx, idx)
}

// PlayIndex jumps to queue position i. Out-of-range positions are ignored.
func (c *Controller) PlayIndex(ctx context.Context, i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= c.queue.Len() {
		return false
	}
	c.switchTo(ctx, i)
	return true
}

func (c *Controller) ToggleShuffle(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.ToggleShuffle()
	c.saveQueue(ctx)
	return c.queue.IsShuffled()
}

func (c *Controller) CycleRepeat(ctx context.Context) queue.RepeatMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode := c.queue.CycleRepeat()
	c.saveQueue(ctx)
	return mode
}

// AddToQueue appends track. Playback is not started.
func (c *Controller) AddToQueue(ctx context.Context, track provider.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Add(track)
	c.saveQueue(ctx)
}

// PlayNext inserts track right after the current one.
func (c *Controller) PlayNext(ctx context.Context, track provider.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.AddNext(track)
	c.saveQueue(ctx)
}

// RemoveFromQueue deletes the track at index. When the playing track is
// removed, whatever takes its slot starts playing.
func (c *Controller) RemoveFromQueue(ctx context.Context, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	before, _ := c.queue.Current()
	if !c.queue.Remove(index) {
		return false
	}
	after, err := c.queue.Current()
	switch {
	case err != nil:
		c.stop()
		c.resetTrackState()
	case after.ID != before.ID:
		if c.playing {
			c.startCurrent()
		} else {
			c.resetTrackState()
			c.beginLyrics(after)
		}
	}
	c.saveQueue(ctx)
	return true
}

// MoveInQueue reorders the queue; the current track stays current.
func (c *Controller) MoveInQueue(ctx context.Context, from, to int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.queue.Move(from, to) {
		return false
	}
	c.saveQueue(ctx)
	return true
}

// ClearQueue empties the queue and stops playback.
func (c *Controller) ClearQueue(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Clear()
	c.stop()
	c.resetTrackState()
	c.saveQueue(ctx)
}

// TogglePause pauses or resumes. A current track that was never loaded,
// such as one from a restored queue, is loaded first.
func (c *Controller) TogglePause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, err := c.queue.Current()
	if err != nil {
		return
	}
	if c.loadedID != cur.ID {
		c.startCurrent()
		return
	}
	if c.playing {
		if err := c.backend.Pause(); err != nil {
			c.recordBackendError("pause", err)
			return
		}
		c.playing = false
		return
	}
	if err := c.backend.Play(); err != nil {
		c.recordBackendError("play", err)
		return
	}
	c.playing = true
}

// Seek moves to an absolute position, clamped to the known duration.
func (c *Controller) Seek(seconds float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seek(seconds)
}

func (c *Controller) seek(seconds float64) {
	if _, err := c.queue.Current(); err != nil {
		return
	}
	if seconds < 0 {
		seconds = 0
	}
	if c.duration > 0 && seconds > c.duration {
		seconds = c.duration
	}
	if err := c.backend.Seek(seconds); err != nil {
		c.recordBackendError("seek", err)
		return
	}
	c.moveClock(seconds)
}

// SeekToLyricLine seeks to the start of lyric line i. Untimed lines are
// refused.
func (c *Controller) SeekToLyricLine(i int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	seconds, ok := lyrics.SeekToLine(c.lyricSync.Document(), i)
	if !ok {
		return false
	}
	c.seek(seconds)
	return true
}

// SetVolume sets the output level in [0, 1] and persists it.
func (c *Controller) SetVolume(ctx context.Context, level float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	if err := c.backend.SetVolume(level); err != nil {
		c.recordBackendError("set volume", err)
		return
	}
	c.volume = level
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, store.KeyVolume, strconv.FormatFloat(level, 'f', -1, 64)); err != nil {
		c.logger.Warn("save volume", slog.Any("err", err))
	}
}

// RestoreQueue loads the persisted queue without starting playback. It does
// nothing unless queue persistence is enabled.
func (c *Controller) RestoreQueue(ctx context.Context) error {
	if c.store == nil || !c.persistQueue {
		return nil
	}
	snap, ok, err := queue.Load(ctx, c.store)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queue.Restore(snap)
	c.stop()
	c.resetTrackState()
	if cur, err := c.queue.Current(); err == nil {
		c.duration = cur.DurationSeconds()
		c.beginLyrics(cur)
	}
	c.logger.Info("queue restored", slog.String("queue_id", snap.ID), slog.Int("tracks", c.queue.Len()),
		slog.Int("current_index", c.queue.CurrentIndex()))
	return nil
}

// Run feeds backend events into the controller until events is closed or
// ctx is done.
func (c *Controller) Run(ctx context.Context, events <-chan media.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			c.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent applies one backend event.
func (c *Controller) HandleEvent(ctx context.Context, ev media.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch ev.Kind {
	case media.Started:
		c.awaitingStart = false
	case media.TimeUpdate:
		if c.awaitingStart {
			c.logger.Debug("dropping time update before file start", slog.Float64("seconds", ev.Seconds))
			return
		}
		c.moveClock(ev.Seconds)
	case media.DurationKnown:
		if ev.Seconds > 0 {
			c.duration = ev.Seconds
		}
	case media.Ended:
		if c.awaitingStart {
			c.logger.Debug("dropping end of previous file")
			return
		}
		if c.queue.Len() == 0 {
			c.playing = false
			return
		}
		if c.queue.RepeatMode() == queue.RepeatOne {
			c.restart()
			return
		}
		c.advance(ctx)
	case media.Error:
		c.awaitingStart = false
		c.playing = false
		c.recordBackendError("playback", ev.Err)
	case media.Paused:
		c.playing = !ev.Paused
	case media.VolumeChanged:
		c.volume = ev.Level
	default:
		c.logger.Debug("ignoring media event", slog.String("kind", ev.Kind.String()))
	}
}

func (c *Controller) CurrentTrack() (provider.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, err := c.queue.Current()
	return t, err == nil
}

func (c *Controller) QueueSnapshot() queue.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Snapshot()
}

func (c *Controller) RecentHistory() []provider.Track {
	return c.history.Entries()
}

// ClearHistory empties the recently played list.
func (c *Controller) ClearHistory(ctx context.Context) {
	c.history.Clear(ctx)
}

// UpNext returns the track Next would play.
func (c *Controller) UpNext() (provider.Track, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.PeekNext()
}

// CurrentLyricLine returns the active lyric line, -1 when none.
func (c *Controller) CurrentLyricLine() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lyricSync.Current()
}

func (c *Controller) LyricLines() []lyrics.Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lyricSync.Document().Lines()
}

func (c *Controller) LyricsSynced() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lyricSync.Document().Synced()
}

func (c *Controller) LyricsStatus() LyricsStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lyricsStatus
}

func (c *Controller) Volume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Playing:  c.playing,
		Elapsed:  c.elapsed,
		Duration: c.duration,
		Volume:   c.volume,
		Repeat:   c.queue.RepeatMode(),
		Shuffled: c.queue.IsShuffled(),
		Lyrics:   c.lyricsStatus,
	}
}

// LastError returns the most recent backend error, nil when none.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// switchTo records the outgoing track and starts the track at idx.
func (c *Controller) switchTo(ctx context.Context, idx int) {
	c.recordOutgoing(ctx)
	c.queue.SetCurrent(idx)
	c.startCurrent()
	c.saveQueue(ctx)
}

func (c *Controller) recordOutgoing(ctx context.Context) {
	if cur, err := c.queue.Current(); err == nil {
		c.history.Add(ctx, cur)
	}
}

// startCurrent loads the current track into the backend and begins fetching
// its lyrics.
func (c *Controller) startCurrent() {
	cur, err := c.queue.Current()
	if err != nil {
		return
	}
	c.resetTrackState()
	c.duration = cur.DurationSeconds()
	c.beginLyrics(cur)
	c.logger.Info("playing track", slog.String("track_id", cur.ID), slog.String("title", cur.Title),
		slog.String("artist", cur.ArtistName), slog.Int("index", c.queue.CurrentIndex()))
	if err := c.backend.Load(cur.SourceRef()); err != nil {
		c.playing = false
		c.recordBackendError("load", err)
		return
	}
	c.loadedID = cur.ID
	c.awaitingStart = true
	c.playing = true
}

// restart plays the current track from zero, loading it first when the
// backend does not have it.
func (c *Controller) restart() {
	cur, err := c.queue.Current()
	if err != nil {
		return
	}
	if c.loadedID != cur.ID {
		c.startCurrent()
		return
	}
	if err := c.backend.Seek(0); err != nil {
		c.recordBackendError("seek", err)
		return
	}
	c.moveClock(0)
	if err := c.backend.Play(); err != nil {
		c.recordBackendError("play", err)
		return
	}
	c.playing = true
}

func (c *Controller) stop() {
	if !c.playing {
		return
	}
	if err := c.backend.Pause(); err != nil {
		c.recordBackendError("pause", err)
	}
	c.playing = false
}

// resetTrackState drops clock and lyric state of the previous track.
func (c *Controller) resetTrackState() {
	c.elapsed = 0
	c.duration = 0
	c.loadedID = ""
	c.awaitingStart = false
	c.generation++
	c.lyricSync.Load(lyrics.Document{})
	c.lyricsStatus = LyricsIdle
}

func (c *Controller) moveClock(seconds float64) {
	if seconds < c.elapsed {
		c.lyricSync.Reset()
	}
	c.elapsed = seconds
	c.lyricSync.Update(seconds)
}

func (c *Controller) recordBackendError(op string, err error) {
	c.lastErr = err
	c.logger.Error("media backend command failed", slog.String("op", op), slog.Any("err", err))
}

func (c *Controller) saveQueue(ctx context.Context) {
	if c.store == nil || !c.persistQueue {
		return
	}
	if err := queue.Save(ctx, c.store, c.queue); err != nil {
		c.logger.Warn("persist queue", slog.Any("err", err))
	}
}

// beginLyrics starts a background fetch for track tagged with the current
// generation.
func (c *Controller) beginLyrics(track provider.Track) {
	if c.fetcher == nil || c.closed {
		return
	}
	c.generation++
	gen := c.generation
	c.lyricsStatus = LyricsLoading
	q := provider.QueryFor(track)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ctx, cancel := context.WithTimeout(c.baseCtx, c.fetchTimeout)
		defer cancel()
		res, err := c.fetcher.FetchLyrics(ctx, q)
		c.applyLyrics(gen, track.ID, res, err)
	}()
}

func (c *Controller) applyLyrics(gen uint64, trackID string, res provider.LyricsResult, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, curErr := c.queue.Current()
	if gen != c.generation || curErr != nil || cur.ID != trackID {
		c.logger.Debug("discarding stale lyrics", slog.String("track_id", trackID))
		return
	}
	switch {
	case err != nil:
		c.lyricsStatus = LyricsError
		c.logger.Warn("lyrics fetch failed", slog.String("track_id", trackID), slog.Any("err", err))
	case !res.Found:
		c.lyricsStatus = LyricsNotFound
	case res.Instrumental:
		c.lyricsStatus = LyricsInstrumental
	default:
		doc := lyrics.FromResult(res)
		if doc.Empty() {
			c.lyricsStatus = LyricsNotFound
			return
		}
		c.lyricSync.Load(doc)
		c.lyricSync.Update(c.elapsed)
		c.lyricsStatus = LyricsLoaded
		c.logger.Debug("lyrics loaded", slog.String("track_id", trackID), slog.Int("lines", doc.Len()),
			slog.Bool("synced", doc.Synced()))
	}
}
