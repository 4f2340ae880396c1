package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// A scripted driver: every statement execution pops the next canned response
// and records the statement text, so transactional storage flows can be
// asserted without a MySQL server.

type scriptResponse struct {
	cols         []string
	rows         [][]driver.Value
	rowsAffected int64
	err          error
}

type statementRecord struct {
	query string
	args  []driver.Value
}

type dbScript struct {
	responses []*scriptResponse
	executed  []statementRecord
	commits   int
	rollbacks int
}

func (s *dbScript) next() *scriptResponse {
	if len(s.responses) == 0 {
		return &scriptResponse{rowsAffected: 1}
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp
}

func (s *dbScript) record(query string, args []driver.Value) {
	s.executed = append(s.executed, statementRecord{query: query, args: args})
}

func (s *dbScript) countExecuted(fragment string) int {
	count := 0
	for _, rec := range s.executed {
		if strings.Contains(rec.query, fragment) {
			count++
		}
	}
	return count
}

func (s *dbScript) findExecuted(fragment string) *statementRecord {
	for i, rec := range s.executed {
		if strings.Contains(rec.query, fragment) {
			return &s.executed[i]
		}
	}
	return nil
}

type fakeConnector struct{ script *dbScript }

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) {
	return &fakeConn{script: c.script}, nil
}

func (c *fakeConnector) Driver() driver.Driver { return fakeDriver{} }

type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("open through the connector")
}

type fakeConn struct{ script *dbScript }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return &fakeStmt{script: c.script, query: query}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	return &fakeTx{script: c.script}, nil
}

type fakeTx struct{ script *dbScript }

func (t *fakeTx) Commit() error {
	t.script.commits++
	return nil
}

func (t *fakeTx) Rollback() error {
	t.script.rollbacks++
	return nil
}

type fakeStmt struct {
	script *dbScript
	query  string
}

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	resp := s.script.next()
	s.script.record(s.query, args)
	if resp.err != nil {
		return nil, resp.err
	}
	return fakeResult{rowsAffected: resp.rowsAffected}, nil
}

func (s *fakeStmt) Query(args []driver.Value) (driver.Rows, error) {
	resp := s.script.next()
	s.script.record(s.query, args)
	if resp.err != nil {
		return nil, resp.err
	}
	return &fakeRows{cols: resp.cols, rows: resp.rows}, nil
}

type fakeResult struct{ rowsAffected int64 }

func (r fakeResult) LastInsertId() (int64, error) { return 1, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type fakeRows struct {
	cols []string
	rows [][]driver.Value
	pos  int
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.pos])
	r.pos++
	return nil
}

func newScriptedDB(script *dbScript) *DB {
	conn := sqlx.NewDb(sql.OpenDB(&fakeConnector{script: script}), "mysql")
	return &DB{conn, &transactorImpl{conn}}
}

var paymentColumns = []string{
	"id", "reference", "transaction_id", "type", "product_id",
	"amount", "commission_rate", "commission_amount", "seller_amount",
	"status", "failure_reason", "metadata", "paid_at", "created", "updated",
	"user_id", "user_email", "user_firstname", "user_lastname", "user_phone",
	"seller_id", "seller_email", "seller_firstname", "seller_lastname",
}

func paymentRow(status string, metadata string) []driver.Value {
	now := time.Now()
	return []driver.Value{
		int64(11), "ref-n", "", "cart", int64(0),
		float64(900), float64(0), float64(0), float64(0),
		status, "", metadata, nil, now, now,
		int64(5), "buyer@example.com", "A", "B", "237670000000",
		int64(0), "", "", "",
	}
}
