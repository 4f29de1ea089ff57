package uploader

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
)

// Coordinator drives one upload from open to finalize. It is single use: a
// second Start returns ErrAlreadyStarted.
type Coordinator struct {
	negotiator Negotiator
	source     Source
	meta       FileMetadata
	opts       Options
	pool       *WorkerPool
	logger     *slog.Logger

	mu        sync.Mutex
	state     State
	session   UploadSession
	canceled  bool
	cancelRun context.CancelFunc

	emitMu     sync.Mutex
	tracker    *Tracker
	last       Snapshot
	onProgress func(Snapshot)

	abortOnce sync.Once
}

// New validates the inputs and options without touching the network. meta.Size
// is taken from src.
func New(negotiator Negotiator, src Source, meta FileMetadata, opts ...Option) (*Coordinator, error) {
	if negotiator == nil {
		return nil, invalidInput("negotiator is required")
	}
	if src == nil {
		return nil, invalidInput("source is required")
	}
	if src.Size() <= 0 {
		return nil, invalidInput("source size must be positive, got %d", src.Size())
	}
	if meta.Name == "" {
		return nil, invalidInput("file name is required")
	}
	meta.Size = src.Size()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if o.Transferer == nil {
		o.Transferer = NewHTTPTransferer(nil)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	pool, err := NewWorkerPool(PoolConfig{
		Transferer:    o.Transferer,
		Concurrency:   o.concurrency(),
		PartTimeout:   o.PartTimeout,
		Retries:       o.PartRetries,
		RetryInterval: o.RetryInterval,
		Logger:        o.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Coordinator{
		negotiator: negotiator,
		source:     src,
		meta:       meta,
		opts:       o,
		pool:       pool,
		logger:     o.Logger.With("file_name", meta.Name),
		state:      StateIdle,
		session:    UploadSession{TotalSize: meta.Size, State: StateIdle},
	}, nil
}

// OnProgress registers the progress sink. It is called synchronously from the
// goroutine that finished a part, never concurrently with itself, with
// non-decreasing percentages.
func (c *Coordinator) OnProgress(fn func(Snapshot)) {
	c.emitMu.Lock()
	c.onProgress = fn
	c.emitMu.Unlock()
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Session returns a copy of the session as currently known.
func (c *Coordinator) Session() UploadSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.session
	s.State = c.state
	return s
}

// Progress returns the last snapshot delivered to the progress sink.
func (c *Coordinator) Progress() Snapshot {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	return c.last
}

// Cancel requests the abort path. It only has an effect while negotiating or
// transferring and reports whether the request was accepted. Once finalize has
// begun the upload can no longer be canceled.
func (c *Coordinator) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNegotiating && c.state != StateTransferring {
		return false
	}
	if !c.canceled {
		c.canceled = true
		c.cancelRun()
		c.logger.Info("upload cancel requested", "state", c.state.String())
	}
	return true
}

// Start runs the upload and blocks until a terminal state. It returns the final
// asset URL, ErrCanceled after Cancel, or the typed error that ended the upload.
func (c *Coordinator) Start(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return "", ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelRun = cancel
	c.transitionLocked(StateNegotiating)
	c.mu.Unlock()

	sess, err := c.open(runCtx)
	if c.isCanceled() {
		return "", c.abortCanceled(ctx, sess)
	}
	if err != nil {
		c.transition(StateFailed)
		return "", err
	}

	jobs, err := c.prepare(sess)
	if err != nil {
		c.abort(ctx, sess)
		c.transition(StateFailed)
		return "", &NegotiationError{Phase: PhaseOpen, SessionID: sess.SessionID, Err: err}
	}
	if !c.enter(StateTransferring) {
		return "", c.abortCanceled(ctx, sess)
	}

	c.emitMu.Lock()
	c.tracker = NewTracker(c.meta.Size, len(jobs), c.opts.Clock)
	c.publishLocked(c.tracker.Snapshot())
	c.emitMu.Unlock()

	tags, err := c.pool.Run(runCtx, jobs, c.source, c.partDone)
	if c.isCanceled() {
		return "", c.abortCanceled(ctx, sess)
	}
	if err != nil {
		c.logger.Error("part upload failed, aborting session", "session_id", sess.SessionID, "error", err)
		c.transition(StateAborting)
		c.abort(ctx, sess)
		c.transition(StateAborted)
		return "", err
	}

	// Finalize is the point of no return. Cancel is refused from here on.
	if !c.enter(StateFinalizing) {
		return "", c.abortCanceled(ctx, sess)
	}

	url, err := c.finalize(ctx, sess, tags)
	if err != nil {
		c.logger.Error("finalize failed", "session_id", sess.SessionID, "error", err)
		c.transition(StateFailed)
		return "", err
	}

	c.emitMu.Lock()
	c.publishLocked(c.tracker.Snapshot())
	c.emitMu.Unlock()

	c.transition(StateCompleted)
	c.logger.Info("upload completed", "session_id", sess.SessionID, "object_key", sess.ObjectKey, "url", url)
	return url, nil
}

func (c *Coordinator) open(ctx context.Context) (*Session, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.NegotiationTimeout)
	defer cancel()

	sess, err := c.negotiator.Open(ctx, c.meta)
	if err != nil {
		var negErr *NegotiationError
		if errors.As(err, &negErr) {
			return nil, err
		}
		return nil, &NegotiationError{Phase: PhaseOpen, Err: err}
	}
	if sess == nil || sess.SessionID == "" {
		return nil, &NegotiationError{Phase: PhaseOpen, Err: invalidInput("backend returned no session id")}
	}
	c.logger.Debug("multipart session opened", "session_id", sess.SessionID, "object_key", sess.ObjectKey, "part_size", sess.PartSize, "parts", len(sess.Parts))
	return sess, nil
}

// prepare plans the parts with the backend's part size and attaches addresses.
func (c *Coordinator) prepare(sess *Session) ([]*PartJob, error) {
	ranges, err := Plan(c.meta.Size, sess.PartSize)
	if err != nil {
		return nil, err
	}
	jobs, err := buildJobs(ranges, sess.Parts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.session.SessionID = sess.SessionID
	c.session.ObjectKey = sess.ObjectKey
	c.session.PartSize = sess.PartSize
	c.session.PartCount = len(jobs)
	c.mu.Unlock()
	return jobs, nil
}

func (c *Coordinator) finalize(ctx context.Context, sess *Session, tags []PartTag) (string, error) {
	sorted := slices.Clone(tags)
	slices.SortFunc(sorted, func(a, b PartTag) int { return a.PartNumber - b.PartNumber })

	ctx, cancel := context.WithTimeout(ctx, c.opts.NegotiationTimeout)
	defer cancel()

	url, err := c.negotiator.Finalize(ctx, sess.SessionID, sess.ObjectKey, sorted)
	if err != nil {
		var (
			negErr *NegotiationError
			intErr *IntegrityError
		)
		if errors.As(err, &negErr) || errors.As(err, &intErr) {
			return "", err
		}
		return "", &NegotiationError{Phase: PhaseFinalize, SessionID: sess.SessionID, Err: err}
	}
	return url, nil
}

// abort runs at most once per session. It survives cancellation of ctx and
// its failure is only logged.
func (c *Coordinator) abort(ctx context.Context, sess *Session) {
	if sess == nil {
		return
	}
	c.abortOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.NegotiationTimeout)
		defer cancel()

		if err := c.negotiator.Abort(ctx, sess.SessionID, sess.ObjectKey); err != nil {
			c.logger.Warn("abort multipart session", "session_id", sess.SessionID, "object_key", sess.ObjectKey, "error", err)
			return
		}
		c.logger.Info("multipart session aborted", "session_id", sess.SessionID)
	})
}

func (c *Coordinator) abortCanceled(ctx context.Context, sess *Session) error {
	c.transition(StateAborting)
	c.abort(ctx, sess)
	c.transition(StateAborted)
	return ErrCanceled
}

func (c *Coordinator) partDone(job *PartJob) {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	c.publishLocked(c.tracker.Observe(job.Size()))
}

func (c *Coordinator) publishLocked(s Snapshot) {
	if s.PercentComplete < c.last.PercentComplete {
		s.PercentComplete = c.last.PercentComplete
	}
	c.last = s
	if c.onProgress != nil {
		c.onProgress(s)
	}
}

func (c *Coordinator) isCanceled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canceled
}

// enter moves to next unless a cancel request is pending.
func (c *Coordinator) enter(next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.canceled {
		return false
	}
	c.transitionLocked(next)
	return true
}

func (c *Coordinator) transition(next State) {
	c.mu.Lock()
	c.transitionLocked(next)
	c.mu.Unlock()
}

func (c *Coordinator) transitionLocked(next State) {
	c.logger.Debug("upload state", "from", c.state.String(), "to", next.String(), "session_id", c.session.SessionID)
	c.state = next
}
