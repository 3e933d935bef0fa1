package harness

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/roach88/fieldset/internal/catalog"
	"github.com/roach88/fieldset/internal/entity"
	"github.com/roach88/fieldset/internal/schema"
	"github.com/roach88/fieldset/internal/secure"
	"github.com/roach88/fieldset/internal/testutil"
	"github.com/roach88/fieldset/internal/value"
	"github.com/roach88/fieldset/internal/version"
)

// DefaultSessionToken is used when a scenario does not fix one.
const DefaultSessionToken = "session-default"

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	observer     entity.Observer
	logger       *slog.Logger
	historyLimit int
}

// WithObserver reports the entity's lifecycle events to o.
func WithObserver(o entity.Observer) Option {
	return func(c *runConfig) {
		c.observer = o
	}
}

// WithLogger sets the logger handed to the entity and session. Default:
// logs are discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithDefaultHistoryLimit caps session history for scenarios that do not
// set history_limit themselves. Zero means unbounded.
func WithDefaultHistoryLimit(n int) Option {
	return func(c *runConfig) {
		if n > 0 {
			c.historyLimit = n
		}
	}
}

// Harness executes one scenario against a fresh entity.
type Harness struct {
	catalog *catalog.Catalog
	entity  *entity.Entity
	session *entity.Session
	cipher  *secure.Cipher
	seq     *entity.Clock
	updates int
	logger  *slog.Logger
}

// Run executes a scenario and returns its result.
//
// Every run is isolated and deterministic: the schema is compiled afresh,
// versions handed out by begin come from a logical clock starting at 1, and
// secured values are sealed under a fixed key with counter nonces.
//
// An error is returned when the scenario cannot be executed at all (missing
// schema, unknown type, malformed value). Failed expectations are reported
// on the Result instead.
func Run(s *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	sch, err := schema.LoadDir(s.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	reg := catalog.NewRegistry()
	if err := sch.Register(reg); err != nil {
		return nil, fmt.Errorf("failed to register schema: %w", err)
	}
	reg.Seal()

	c, ok := reg.Lookup(catalog.TypeID(s.Type))
	if !ok {
		return nil, fmt.Errorf("type %q not declared in %s", s.Type, s.Schema)
	}

	cipher, err := fixedCipher()
	if err != nil {
		return nil, err
	}

	h := &Harness{
		catalog: c,
		cipher:  cipher,
		seq:     entity.NewClock(),
		logger:  cfg.logger,
	}

	ch := entity.NewChannel()
	unsubscribe := ch.Subscribe(func(entity.Update) { h.updates++ })
	defer unsubscribe()

	id := s.EntityID
	if id == 0 {
		id = 1
	}
	entityOpts := []entity.Option{
		entity.WithChannel(ch),
		entity.WithLogger(cfg.logger),
		entity.WithBaseVersion(s.BaseVersion),
	}
	if cfg.observer != nil {
		entityOpts = append(entityOpts, entity.WithObserver(cfg.observer))
	}
	h.entity = entity.New(c, id, entityOpts...)

	limit := s.HistoryLimit
	if limit == 0 {
		limit = cfg.historyLimit
	}

	token := s.SessionToken
	if token == "" {
		token = DefaultSessionToken
	}
	h.session = entity.NewSession(
		entity.WithTokens(entity.NewFixedGenerator(token)),
		entity.WithVersionSource(entity.NewClock()),
		entity.WithHistoryLimit(limit),
		entity.WithSessionLogger(cfg.logger),
	)

	result := NewResult()
	for i, step := range s.Steps {
		if err := h.executeStep(i, step, result); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}

	result.Updates = h.updates
	for d := range c.Fields() {
		result.Fields[string(d.ID())] = value.Format(d.Read(h.entity))
	}
	for _, msg := range h.evaluateAssertions(s.Assertions, result) {
		result.AddError(msg)
	}
	return result, nil
}

// fixedCipher seals with an all-0x2a key and counter nonces so ciphertexts
// repeat from run to run.
func fixedCipher() (*secure.Cipher, error) {
	keys, err := secure.NewKeyring(bytes.Repeat([]byte{0x2a}, secure.KeySize))
	if err != nil {
		return nil, fmt.Errorf("failed to create keyring: %w", err)
	}
	return secure.NewCipher(keys, secure.WithRandom(&testutil.CountingReader{})), nil
}

func (h *Harness) executeStep(i int, step Step, result *Result) error {
	returns, opErr := h.apply(step)

	code, isContract := errorCode(opErr)
	if opErr != nil && !isContract {
		return opErr
	}

	event := TraceEvent{
		Seq:       h.seq.Next(),
		Op:        step.Op,
		Field:     step.Field,
		Arg:       stepArg(step),
		Returns:   returns,
		Error:     code,
		DataState: h.entity.DataState().String(),
		EditState: h.entity.EditState().String(),
		Version:   h.entity.Version(),
		Depth:     h.entity.History().Depth(),
	}
	result.Trace = append(result.Trace, event)

	h.logger.Debug("step applied",
		"step", i,
		"op", step.Op,
		"data_state", event.DataState,
		"version", event.Version,
	)

	for _, msg := range checkExpect(step.Expect, event) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", i, step.Op, msg))
	}
	return nil
}

func (h *Harness) apply(step Step) (string, error) {
	e := h.entity
	switch step.Op {
	case OpSet:
		d, v, err := h.fieldValue(step.Field, step.Value)
		if err != nil {
			return "", err
		}
		return "", e.Set(d, v)
	case OpSetSecret:
		d, v, err := h.fieldValue(step.Field, step.Value)
		if err != nil {
			return "", err
		}
		sealed, err := h.cipher.Encrypt(d, v)
		if err != nil {
			return "", err
		}
		return "", e.Set(d, sealed)
	case OpSetUnchecked:
		d, err := h.catalog.Resolve(catalog.FieldID(step.Field))
		if err != nil {
			return "", err
		}
		// Unchecked values are taken verbatim as strings.
		v := value.Value(value.Null{})
		if step.Value != nil {
			v = value.String(*step.Value)
		}
		return "", e.Load(func(l *entity.Loader) error {
			return l.SetUnchecked(d, v)
		})
	case OpLoad:
		return "", e.Load(func(l *entity.Loader) error {
			for _, id := range slices.Sorted(maps.Keys(step.Values)) {
				d, v, err := h.fieldValue(id, step.Values[id])
				if err != nil {
					return err
				}
				if err := l.Set(d, v); err != nil {
					return err
				}
			}
			return nil
		})
	case OpPush:
		return "", e.Push(step.Version)
	case OpPop:
		return strconv.FormatBool(e.Pop()), nil
	case OpMaybePop:
		return strconv.FormatBool(e.MaybePop()), nil
	case OpClear:
		e.ClearHistory()
		return "", nil
	case OpReset:
		e.ResetHistory()
		return "", nil
	case OpSetHistory:
		base := version.NewValueSet(h.catalog)
		for _, id := range slices.Sorted(maps.Keys(step.Values)) {
			d, v, err := h.fieldValue(id, step.Values[id])
			if err != nil {
				return "", err
			}
			if err := base.Set(d, v); err != nil {
				return "", err
			}
		}
		return "", e.SetHistory(base)
	case OpCondense:
		return strconv.Itoa(e.Condense(step.Version)), nil
	case OpTrim:
		return strconv.Itoa(e.TrimHistory(step.Limit)), nil
	case OpDelete:
		e.SetDeleted(true)
		return "", nil
	case OpUndelete:
		e.SetDeleted(false)
		return "", nil
	case OpError:
		e.AddError(step.Message, catalog.FieldID(step.Field))
		return "", nil
	case OpClearErrors:
		e.ClearErrors()
		return "", nil
	case OpCheckLengths:
		return strconv.Itoa(e.CheckLengths()), nil
	case OpBegin:
		return "", h.session.Begin(e)
	case OpCommit:
		edited, err := h.session.Commit()
		return strconv.Itoa(len(edited)), err
	case OpCancel:
		return "", h.session.Cancel()
	default:
		return "", fmt.Errorf("unknown op %q", step.Op)
	}
}

// fieldValue resolves a field and parses its text value. Parse failures are
// returned as plain errors so they abort the run rather than count as an
// expected contract error.
func (h *Harness) fieldValue(id string, text *string) (*catalog.Descriptor, value.Value, error) {
	d, err := h.catalog.Resolve(catalog.FieldID(id))
	if err != nil {
		return nil, nil, err
	}
	if text == nil {
		return d, value.Null{}, nil
	}
	v, err := d.Parse(*text)
	if err != nil {
		return nil, nil, fmt.Errorf("value for %s: %s", id, err.Error())
	}
	return d, v, nil
}

// errorCode names an expected failure. Contract violations report their
// code and session misuse reports a fixed name. Anything else is not an
// outcome a scenario can expect.
func errorCode(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var ce *catalog.ContractError
	switch {
	case errors.As(err, &ce):
		return string(ce.Code), true
	case errors.Is(err, entity.ErrSessionOpen):
		return "SESSION_OPEN", true
	case errors.Is(err, entity.ErrNoOpenEdit):
		return "NO_OPEN_EDIT", true
	}
	return "", false
}

// stepArg renders the step's argument for the trace.
func stepArg(step Step) string {
	switch step.Op {
	case OpSet, OpSetSecret, OpSetUnchecked:
		if step.Value == nil {
			return "null"
		}
		return *step.Value
	case OpPush, OpCondense:
		return strconv.Itoa(step.Version)
	case OpTrim:
		return strconv.Itoa(step.Limit)
	case OpError:
		return step.Message
	}
	return ""
}

func checkExpect(x *Expect, ev TraceEvent) []string {
	if x == nil {
		if ev.Error != "" {
			return []string{fmt.Sprintf("unexpected error %s", ev.Error)}
		}
		return nil
	}

	var errs []string
	if x.Error != ev.Error {
		errs = append(errs, fmt.Sprintf("error: expected %q, got %q", x.Error, ev.Error))
	}
	if x.DataState != "" && x.DataState != ev.DataState {
		errs = append(errs, fmt.Sprintf("data_state: expected %s, got %s", x.DataState, ev.DataState))
	}
	if x.EditState != "" && x.EditState != ev.EditState {
		errs = append(errs, fmt.Sprintf("edit_state: expected %s, got %s", x.EditState, ev.EditState))
	}
	if x.Version != nil && *x.Version != ev.Version {
		errs = append(errs, fmt.Sprintf("version: expected %d, got %d", *x.Version, ev.Version))
	}
	if x.Depth != nil && *x.Depth != ev.Depth {
		errs = append(errs, fmt.Sprintf("depth: expected %d, got %d", *x.Depth, ev.Depth))
	}
	if x.Returns != nil && *x.Returns != ev.Returns {
		errs = append(errs, fmt.Sprintf("returns: expected %q, got %q", *x.Returns, ev.Returns))
	}
	return errs
}
