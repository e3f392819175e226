package application

import (
	"bufio"
	"context"
	"errors"
	"net"
	"runtime"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/irc"
	"github.com/bnema/karmabot/internal/ports"
)

// memoryRepository stores records by value and yields between read and
// write paths, so callers that skip locking lose updates quickly.
type memoryRepository struct {
	mu      sync.Mutex
	records map[domain.Subject]domain.KarmaRecord
	saves   int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: map[domain.Subject]domain.KarmaRecord{}}
}

func (r *memoryRepository) Get(_ context.Context, subject domain.Subject) (domain.KarmaRecord, error) {
	r.mu.Lock()
	record, ok := r.records[subject]
	r.mu.Unlock()
	runtime.Gosched()

	if !ok {
		return domain.KarmaRecord{}, domain.ErrSubjectNotFound
	}
	return record, nil
}

func (r *memoryRepository) Save(_ context.Context, record domain.KarmaRecord) error {
	runtime.Gosched()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.Subject] = record
	r.saves++
	return nil
}

func (r *memoryRepository) List(_ context.Context, order domain.RankingOrder, limit int) ([]domain.KarmaRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := make([]domain.KarmaRecord, 0, len(r.records))
	for _, record := range r.records {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Score != records[j].Score {
			if order == domain.RankingBottom {
				return records[i].Score < records[j].Score
			}
			return records[i].Score > records[j].Score
		}
		return records[i].Subject < records[j].Subject
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *memoryRepository) has(subject domain.Subject) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.records[subject]
	return ok
}

func (r *memoryRepository) score(subject domain.Subject) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records[subject].Score
}

var _ ports.KarmaRepository = (*memoryRepository)(nil)

func mockAnyContext() interface{} {
	return mock.Anything
}

func mustParse(t *testing.T, line string) irc.Event {
	t.Helper()
	ev, err := irc.ParseLine(line)
	require.NoError(t, err)
	return ev
}

func newTestDispatcher(store KarmaStore, policy Policy) *Dispatcher {
	return NewDispatcher(store, DispatcherOptions{Policy: policy})
}

// fakeServer is the server end of a net.Pipe.
type fakeServer struct {
	conn  net.Conn
	lines chan string
}

func newFakeServer(conn net.Conn) *fakeServer {
	srv := &fakeServer{conn: conn, lines: make(chan string, 64)}
	go func() {
		defer close(srv.lines)
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				return
			}
			srv.lines <- strings.TrimRight(line, "\r\n")
		}
	}()
	return srv
}

func (s *fakeServer) send(t *testing.T, line string) {
	t.Helper()
	_ = s.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, err := s.conn.Write([]byte(line + "\r\n"))
	require.NoError(t, err)
}

func (s *fakeServer) expect(t *testing.T, want string) {
	t.Helper()
	select {
	case got, ok := <-s.lines:
		require.True(t, ok, "connection closed while waiting for %q", want)
		require.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", want)
	}
}

func (s *fakeServer) expectPrefix(t *testing.T, prefix string) string {
	t.Helper()
	select {
	case got, ok := <-s.lines:
		require.True(t, ok, "connection closed while waiting for %q", prefix)
		require.True(t, strings.HasPrefix(got, prefix), "got %q, want prefix %q", got, prefix)
		return got
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %q", prefix)
		return ""
	}
}

// welcome completes registration for a bot without channels.
func (s *fakeServer) welcome(t *testing.T, nick string) {
	t.Helper()
	s.expect(t, "NICK "+nick)
	s.expect(t, "USER kbot 0 * :"+nick)
	s.send(t, ":irc.test 001 "+nick+" :Welcome to the test network")
}

// scriptedDialer answers each Dial with the next step. A nil step hands
// out a fresh pipe whose server end is published on servers.
type scriptedDialer struct {
	mu      sync.Mutex
	steps   []error
	dials   int
	servers chan *fakeServer
}

func newScriptedDialer(steps ...error) *scriptedDialer {
	return &scriptedDialer{steps: steps, servers: make(chan *fakeServer, 8)}
}

func (d *scriptedDialer) Dial(ctx context.Context) (ports.Conn, error) {
	d.mu.Lock()
	var step error
	if d.dials < len(d.steps) {
		step = d.steps[d.dials]
	} else if len(d.steps) > 0 {
		step = d.steps[len(d.steps)-1]
	}
	d.dials++
	d.mu.Unlock()

	if step != nil {
		return nil, step
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, server := net.Pipe()
	d.servers <- newFakeServer(server)
	return client, nil
}

func (d *scriptedDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *scriptedDialer) next(t *testing.T) *fakeServer {
	t.Helper()
	select {
	case srv := <-d.servers:
		return srv
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dial")
		return nil
	}
}

var errRefused = errors.New("connection refused")
