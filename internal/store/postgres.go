package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Davshiv20/PingPollz/internal/model"
)

// opTimeout bounds every store call so a slow database surfaces as an error
// instead of a hung request.
const opTimeout = 3 * time.Second

// uniqueViolation is the Postgres error code raised by the partial unique
// index that allows at most one active poll row.
const uniqueViolation = "23505"

// Postgres is the shared external Store. The one-active-poll invariant lives
// in a partial unique index, and the tally+answered pair is one row insert in
// poll_answers, so concurrent writers on separate nodes still serialize.
type Postgres struct {
	pool    *pgxpool.Pool
	chatCap int
}

func NewPostgres(pool *pgxpool.Pool, chatCap int) *Postgres {
	if chatCap <= 0 {
		chatCap = 100
	}
	return &Postgres{pool: pool, chatCap: chatCap}
}

func (s *Postgres) CreatePoll(ctx context.Context, p *model.Poll) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO polls (id, question, options, correct_options, max_time, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	`, p.ID, p.Question, p.Options, p.CorrectOptions, p.MaxTime, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrActivePollExists
		}
		return err
	}
	return nil
}

func (s *Postgres) RecordAnswer(ctx context.Context, pollID, participantID, option string) (*AnswerResult, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock the active poll row so the tally increment and answered-set insert
	// commit as one pair.
	var cur model.Poll
	err = tx.QueryRow(ctx, `
		SELECT id, question, options, correct_options, max_time, created_at
		FROM polls WHERE is_active FOR UPDATE
	`).Scan(&cur.ID, &cur.Question, &cur.Options, &cur.CorrectOptions, &cur.MaxTime, &cur.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActivePoll
	}
	if err != nil {
		return nil, err
	}
	cur.Active = true

	if cur.ID != pollID {
		return nil, ErrPollMismatch
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM participants WHERE id = $1)`, participantID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrUnknownParticipant
	}
	if !cur.HasOption(option) {
		return nil, ErrUnknownOption
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO poll_answers (poll_id, participant_id, option_label) VALUES ($1, $2, $3)
	`, cur.ID, participantID, option)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrAlreadyAnswered
		}
		return nil, err
	}

	if err := s.loadAnswers(ctx, tx, &cur); err != nil {
		return nil, err
	}

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&total); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &AnswerResult{
		Poll:              &cur,
		AnsweredCount:     len(cur.AnsweredIDs),
		TotalParticipants: total,
	}, nil
}

func (s *Postgres) EndPoll(ctx context.Context, pollID string) (*model.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p model.Poll
	err := s.pool.QueryRow(ctx, `
		UPDATE polls SET is_active = FALSE
		WHERE id = $1 AND is_active
		RETURNING id, question, options, correct_options, max_time, created_at
	`, pollID).Scan(&p.ID, &p.Question, &p.Options, &p.CorrectOptions, &p.MaxTime, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActivePoll
	}
	if err != nil {
		return nil, err
	}

	if err := s.loadAnswers(ctx, s.pool, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) CurrentPoll(ctx context.Context) (*model.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p model.Poll
	err := s.pool.QueryRow(ctx, `
		SELECT id, question, options, correct_options, max_time, created_at
		FROM polls WHERE is_active
	`).Scan(&p.ID, &p.Question, &p.Options, &p.CorrectOptions, &p.MaxTime, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoActivePoll
	}
	if err != nil {
		return nil, err
	}
	p.Active = true

	if err := s.loadAnswers(ctx, s.pool, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) ListPolls(ctx context.Context) ([]*model.Poll, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, question, options, correct_options, max_time, created_at, is_active
		FROM polls ORDER BY seq
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var polls []*model.Poll
	for rows.Next() {
		var p model.Poll
		if err := rows.Scan(&p.ID, &p.Question, &p.Options, &p.CorrectOptions, &p.MaxTime, &p.CreatedAt, &p.Active); err != nil {
			return nil, err
		}
		polls = append(polls, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, p := range polls {
		if err := s.loadAnswers(ctx, s.pool, p); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

// querier lets loadAnswers run inside or outside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (s *Postgres) loadAnswers(ctx context.Context, q querier, p *model.Poll) error {
	rows, err := q.Query(ctx, `
		SELECT participant_id, option_label
		FROM poll_answers WHERE poll_id = $1 ORDER BY created_at
	`, p.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	p.Tally = make(map[string]int)
	p.AnsweredIDs = nil
	for rows.Next() {
		var participantID, option string
		if err := rows.Scan(&participantID, &option); err != nil {
			return err
		}
		p.Tally[option]++
		p.AnsweredIDs = append(p.AnsweredIDs, participantID)
	}
	return rows.Err()
}

func (s *Postgres) AddParticipant(ctx context.Context, p *model.Participant) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO participants (id, name, conn_id, joined_at) VALUES ($1, $2, $3, $4)
	`, p.ID, p.Name, p.ConnID, p.JoinedAt)
	return err
}

func (s *Postgres) RemoveParticipant(ctx context.Context, participantID string) (*model.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.removeWhere(ctx, `id = $1`, participantID)
}

func (s *Postgres) RemoveParticipantByConn(ctx context.Context, connID string) (*model.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.removeWhere(ctx, `conn_id = $1`, connID)
}

func (s *Postgres) removeWhere(ctx context.Context, cond string, arg any) (*model.Participant, error) {
	var p model.Participant
	err := s.pool.QueryRow(ctx, `
		DELETE FROM participants WHERE `+cond+`
		RETURNING id, name, conn_id, joined_at
	`, arg).Scan(&p.ID, &p.Name, &p.ConnID, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownParticipant
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) Participant(ctx context.Context, participantID string) (*model.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var p model.Participant
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, conn_id, joined_at FROM participants WHERE id = $1
	`, participantID).Scan(&p.ID, &p.Name, &p.ConnID, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUnknownParticipant
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Postgres) ListParticipants(ctx context.Context) ([]*model.Participant, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, name, conn_id, joined_at FROM participants ORDER BY joined_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.ConnID, &p.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *Postgres) CountParticipants(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n)
	return n, err
}

func (s *Postgres) AppendChat(ctx context.Context, m *model.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, sender_name, role, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Sender, m.Role, m.Body, m.CreatedAt)
	if err != nil {
		return err
	}

	// Trim to capacity, dropping the oldest rows.
	_, err = s.pool.Exec(ctx, `
		DELETE FROM chat_messages
		WHERE seq < (
			SELECT MIN(seq) FROM (
				SELECT seq FROM chat_messages ORDER BY seq DESC LIMIT $1
			) keep
		)
	`, s.chatCap)
	return err
}

func (s *Postgres) ChatHistory(ctx context.Context) ([]*model.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Newest N descending, then reversed for chronological order.
	rows, err := s.pool.Query(ctx, `
		SELECT id, sender_name, role, body, created_at
		FROM chat_messages ORDER BY seq DESC LIMIT $1
	`, s.chatCap)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []*model.ChatMessage
	for rows.Next() {
		var m model.ChatMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Role, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// DeleteChatOlderThan removes messages older than the given number of days.
// Used by the periodic retention sweep; not part of the Store interface.
func (s *Postgres) DeleteChatOlderThan(ctx context.Context, days int) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tag, err := s.pool.Exec(ctx, `
		DELETE FROM chat_messages WHERE created_at < NOW() - make_interval(days => $1)
	`, days)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Postgres) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	return s.pool.Ping(ctx)
}
