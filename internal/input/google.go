// =============================================================================
// Invoicing - Google Sheets Fetcher
// =============================================================================
//
// Reads ranges through the Sheets API v4, read-only scope.
//
// CREDENTIALS (input.credentials_path, default <key folder>/key.json):
//   - A service account key: used directly.
//   - An OAuth client ("installed" application): the user token is read from
//     input.token_path (default <key folder>/token.json). It is created once
//     by "invoicing auth" and rewritten whenever it is refreshed.
//
// =============================================================================

package input

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ginjaninja78/invoicing/internal/config"
	"github.com/ginjaninja78/invoicing/internal/errs"
	"github.com/ginjaninja78/invoicing/pkg/utils"
)

// Scope is the only permission requested.
const Scope = sheets.SpreadsheetsReadonlyScope

// GoogleSheet serves ranges of a Google spreadsheet.
type GoogleSheet struct {
	SpreadsheetID string

	// Sheet prefixes every range when set.
	Sheet string

	values *sheets.SpreadsheetsValuesService
	log    *logrus.Entry
}

// NewGoogleFetcher authenticates and builds the Sheets client.
func NewGoogleFetcher(ctx context.Context, spreadsheetID string, in *config.InputConfig, log *logrus.Entry) (*GoogleSheet, error) {
	log.Debugf("credential_path: %s", in.CredentialsPath)
	log.Debugf("token_path: %s", in.TokenPath)

	opt, err := clientOption(ctx, in, log)
	if err != nil {
		return nil, err
	}

	svc, err := sheets.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &GoogleSheet{
		SpreadsheetID: spreadsheetID,
		Sheet:         in.Sheet,
		values:        svc.Spreadsheets.Values,
		log:           log,
	}, nil
}

// Fetch implements Fetcher.
func (g *GoogleSheet) Fetch(ctx context.Context, a1Range string) ([][]string, error) {
	rng := qualify(g.Sheet, a1Range)
	resp, err := g.values.Get(g.SpreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

// qualify prefixes a range with its quoted sheet name.
func qualify(sheetName, a1Range string) string {
	if sheetName == "" {
		return a1Range
	}
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!" + a1Range
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}

// =============================================================================
// CREDENTIALS
// =============================================================================

func readCredentials(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.NotFoundError{What: "credentials", Path: path}
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	return data, nil
}

func isServiceAccount(data []byte) bool {
	var key struct {
		Type string `json:"type"`
	}
	return json.Unmarshal(data, &key) == nil && key.Type == "service_account"
}

func clientOption(ctx context.Context, in *config.InputConfig, log *logrus.Entry) (option.ClientOption, error) {
	data, err := readCredentials(in.CredentialsPath)
	if err != nil {
		return nil, err
	}

	if isServiceAccount(data) {
		log.Debug("using service account credentials")
		return option.WithCredentialsFile(in.CredentialsPath), nil
	}

	conf, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid OAuth client %s: %w", in.CredentialsPath, err)
	}

	tok, err := loadToken(in.TokenPath)
	if err != nil {
		return nil, err
	}
	log.Debug("found connection token")

	return option.WithTokenSource(&savingTokenSource{
		base: conf.TokenSource(ctx, tok),
		path: in.TokenPath,
		last: tok,
		log:  log,
	}), nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &errs.NotFoundError{What: "token", Path: path}
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	tok := &oauth2.Token{}
	if err := json.Unmarshal(data, tok); err != nil {
		return nil, fmt.Errorf("invalid token %s: %w", path, err)
	}
	return tok, nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// savingTokenSource writes the token back whenever it is refreshed.
type savingTokenSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	path string
	last *oauth2.Token
	log  *logrus.Entry
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || tok.AccessToken != s.last.AccessToken {
		if err := saveToken(s.path, tok); err != nil {
			s.log.WithError(err).Warn("could not save refreshed token")
		} else {
			s.log.Info("refreshed connection token")
		}
		s.last = tok
	}
	return tok, nil
}

// =============================================================================
// AUTHORIZATION
// =============================================================================

// Authorize runs the installed-application flow: it listens on a loopback
// port, prints the consent URL to out and stores the token once the browser
// comes back with a code.
func Authorize(ctx context.Context, in *config.InputConfig, out io.Writer) error {
	data, err := readCredentials(in.CredentialsPath)
	if err != nil {
		return err
	}
	if isServiceAccount(data) {
		fmt.Fprintln(out, "Service account credentials need no authorization.")
		return nil
	}

	conf, err := google.ConfigFromJSON(data, Scope)
	if err != nil {
		return fmt.Errorf("invalid OAuth client %s: %w", in.CredentialsPath, err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for the authorization code: %w", err)
	}
	conf.RedirectURL = "http://" + ln.Addr().String()

	state := uuid.NewString()
	codes := make(chan string, 1)
	srv := &http.Server{Handler: callbackHandler(state, codes)}
	go srv.Serve(ln)
	defer srv.Shutdown(context.Background())

	fmt.Fprintf(out, "Open this link in your browser to authorize access:\n\n%s\n\n",
		conf.AuthCodeURL(state, oauth2.AccessTypeOffline))

	var code string
	select {
	case code = <-codes:
	case <-ctx.Done():
		return ctx.Err()
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	if err := saveToken(in.TokenPath, tok); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	fmt.Fprintf(out, "Token saved to %s\n", in.TokenPath)
	return nil
}

func callbackHandler(state string, codes chan<- string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("state") != state {
			http.Error(w, "state mismatch", http.StatusBadRequest)
			return
		}
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code: "+q.Get("error"), http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorization complete, you can close this window.")
		select {
		case codes <- code:
		default:
		}
	})
}
