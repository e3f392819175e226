package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sqliterepo "github.com/bnema/karmabot/internal/adapters/repo/sqlite"
	tomlrepo "github.com/bnema/karmabot/internal/adapters/repo/toml"
	"github.com/bnema/karmabot/internal/domain"
	"github.com/bnema/karmabot/internal/version"
)

func TestVersionPrintsBuildVersion(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "version")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", stdout)
}

func TestInitDBCreatesDefaultSQLiteStore(t *testing.T) {
	home := t.TempDir()

	stdout, stderr, err := executeCLI(t, home, "initdb")
	require.NoError(t, err, "stderr: %s", stderr)

	path := filepath.Join(home, "data", "karmabot", "karma.db")
	assert.Contains(t, stdout, "karma store ready: "+path+" (sqlite)")
	assert.FileExists(t, path)
}

func TestInitDBHonoursEnvironmentBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("KARMABOT_STORE_BACKEND", "toml")

	stdout, _, err := executeCLI(t, home, "initdb")
	require.NoError(t, err)

	path := filepath.Join(home, "data", "karmabot", "karma.toml")
	assert.Contains(t, stdout, "(toml)")
	assert.FileExists(t, path)
}

func TestInitDBReadsConfigFile(t *testing.T) {
	home := t.TempDir()
	storePath := filepath.Join(home, "custom", "scores.toml")
	writeConfigFixture(t, home, "[store]\nbackend = \"toml\"\npath = \""+filepath.ToSlash(storePath)+"\"\n")

	stdout, _, err := executeCLI(t, home, "initdb")
	require.NoError(t, err)
	assert.Contains(t, stdout, storePath)
	assert.FileExists(t, storePath)
}

func TestInvalidConfigFileIsFatal(t *testing.T) {
	home := t.TempDir()
	writeConfigFixture(t, home, "[store\n")

	_, _, err := executeCLI(t, home, "initdb")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFatalConfig)
}

func TestUnknownStoreBackendIsFatal(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "initdb", "--store-backend", "redis")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFatalConfig)
}

func TestKarmaReportsMissingSubject(t *testing.T) {
	stdout, _, err := executeCLI(t, t.TempDir(), "karma", "widget")
	require.NoError(t, err)
	assert.Equal(t, "widget has no karma yet\n", stdout)
}

func TestKarmaReadsSQLiteStore(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "karma.db")

	repo, err := sqliterepo.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), domain.KarmaRecord{Subject: "widget", Score: 3, UpdatedAt: time.Now()}))
	require.NoError(t, repo.Close())

	stdout, _, err := executeCLI(t, home, "karma", "--store-path", path, "Widget")
	require.NoError(t, err)
	assert.Equal(t, "widget has 3 karma\n", stdout)
}

func TestKarmaRejectsBlankSubject(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "karma", "  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidSubject)
}

func TestTopJSONOrdersByScore(t *testing.T) {
	home := t.TempDir()
	path := seedTOMLStore(t, home)

	stdout, _, err := executeCLI(t, home, "top", "--store-backend", "toml", "--store-path", path, "--json", "--limit", "2")
	require.NoError(t, err)

	var entries []leaderboardEntry
	require.NoError(t, json.Unmarshal([]byte(stdout), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "alice", entries[0].Subject)
	assert.Equal(t, int64(5), entries[0].Score)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "bob", entries[1].Subject)
}

func TestTopBottomRendersLeaderboard(t *testing.T) {
	home := t.TempDir()
	path := seedTOMLStore(t, home)

	stdout, _, err := executeCLI(t, home, "top", "--store-backend", "toml", "--store-path", path, "--bottom")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Karma leaderboard (bottom)")
	assert.Less(t, strings.Index(stdout, "carol"), strings.Index(stdout, "alice"))
}

func TestTopRejectsNonPositiveLimit(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "top", "--limit", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--limit must be at least 1")
}

func TestRunRequiresServer(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "run")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFatalConfig)
	assert.Contains(t, err.Error(), "server host is required")
}

func TestRunRejectsInvalidChannel(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "run", "irc.example.net", "--channel", "nochan")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFatalConfig)
}

func TestCheckCompletesRegistration(t *testing.T) {
	port, received := startRegistrationServer(t)

	stdout, _, err := executeCLI(t, t.TempDir(), "check", "127.0.0.1", "--port", port, "--nick", "Karma_Test", "--quiet")
	require.NoError(t, err)
	assert.Equal(t, "connected to 127.0.0.1:"+port+" as Karma_Test\n", stdout)

	assert.Equal(t, []string{
		"NICK Karma_Test",
		"USER kbot 0 * :KarmaBot",
		"QUIT :karmabot check",
	}, waitForLines(t, received))
}

func TestCheckSendsPasswordFromSecretFile(t *testing.T) {
	home := t.TempDir()
	secretPath := filepath.Join(home, "config", "karmabot", "secrets", "irc", "test")
	require.NoError(t, os.MkdirAll(filepath.Dir(secretPath), 0o700))
	require.NoError(t, os.WriteFile(secretPath, []byte("hunter2\n"), 0o600))
	t.Setenv("KARMABOT_SERVER_PASSWORD_REF", "irc/test")

	port, received := startRegistrationServer(t)

	_, _, err := executeCLI(t, home, "check", "127.0.0.1", "--port", port, "--quiet")
	require.NoError(t, err)

	lines := waitForLines(t, received)
	require.NotEmpty(t, lines)
	assert.Equal(t, "PASS hunter2", lines[0])
}

func TestCheckFailsOnUnresolvedPasswordReference(t *testing.T) {
	t.Setenv("KARMABOT_SERVER_PASSWORD_REF", "karmabot-test/definitely-missing")

	_, _, err := executeCLI(t, t.TempDir(), "check", "127.0.0.1", "--quiet")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFatalConfig)
}

func TestCheckReportsRefusedConnection(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := strconv.Itoa(listener.Addr().(*net.TCPAddr).Port)
	require.NoError(t, listener.Close())

	_, _, err = executeCLI(t, t.TempDir(), "check", "127.0.0.1", "--port", port, "--quiet")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConnection)
}

func TestUnknownCommandFails(t *testing.T) {
	_, _, err := executeCLI(t, t.TempDir(), "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

// startRegistrationServer accepts one client, welcomes it after USER and
// reports every line it sent once it disconnects.
func startRegistrationServer(t *testing.T) (string, <-chan []string) {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })

	received := make(chan []string, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			received <- nil
			return
		}
		defer conn.Close()

		var lines []string
		reader := bufio.NewReader(conn)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				received <- lines
				return
			}
			line = strings.TrimRight(line, "\r\n")
			lines = append(lines, line)
			if strings.HasPrefix(line, "USER ") {
				nick := "KarmaBot"
				for _, seen := range lines {
					if after, ok := strings.CutPrefix(seen, "NICK "); ok {
						nick = after
					}
				}
				_, _ = conn.Write([]byte(":irc.test 001 " + nick + " :Welcome\r\n"))
			}
		}
	}()

	return strconv.Itoa(listener.Addr().(*net.TCPAddr).Port), received
}

func waitForLines(t *testing.T, received <-chan []string) []string {
	t.Helper()

	select {
	case lines := <-received:
		return lines
	case <-time.After(5 * time.Second):
		t.Fatal("server did not see the connection close")
		return nil
	}
}

func executeCLI(t *testing.T, home string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))

	root := newRootCmd()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeConfigFixture(t *testing.T, home, contents string) {
	t.Helper()

	dir := filepath.Join(home, "config", "karmabot")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(contents), 0o644))
}

func seedTOMLStore(t *testing.T, home string) string {
	t.Helper()

	path := filepath.Join(home, "seed", "karma.toml")
	repo, err := tomlrepo.NewRepository(path)
	require.NoError(t, err)

	now := time.Now()
	for subject, score := range map[domain.Subject]int64{"alice": 5, "bob": 2, "carol": -4} {
		require.NoError(t, repo.Save(context.Background(), domain.KarmaRecord{Subject: subject, Score: score, UpdatedAt: now}))
	}
	return path
}
