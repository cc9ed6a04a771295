package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/robalobadob/connections/assets"
	"github.com/robalobadob/connections/internal/catalog"
	"github.com/robalobadob/connections/internal/client"
	"github.com/robalobadob/connections/internal/codes"
	"github.com/robalobadob/connections/internal/database"
	"github.com/robalobadob/connections/internal/game"
	"github.com/robalobadob/connections/internal/stats"
)

const uploadBody = `{
	"title": "Pairs", "author": "Ada", "course": "CSC108",
	"num_categories": 2, "words_per_category": 2, "max_mistakes": 1,
	"syntax_highlighting": "python", "relevant_info": "",
	"game": [
		{"category": "vowels", "words": ["a", "e"], "difficulty": 1, "explanation": ""},
		{"category": "consonants", "words": ["b", "c"], "difficulty": 2, "explanation": ""}
	]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	db, err := database.OpenMigrated(filepath.Join(t.TempDir(), "app.db"), assets.Migrations())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	s := New(db, catalog.New(db, codes.New("salt")), stats.NewStore(db), zerolog.Nop())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)
	return ts
}

type response struct {
	status int
	body   map[string]any
	raw    []byte
}

func do(t *testing.T, method, url, token, body string) response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	out := response{status: res.StatusCode, raw: raw}
	_ = json.Unmarshal(raw, &out.body)
	return out
}

func signup(t *testing.T, base, username string) string {
	t.Helper()
	res := do(t, http.MethodPost, base+"/auth/signup", "", `{"username":"`+username+`","password":"hunter2hunter2"}`)
	if res.status != http.StatusCreated {
		t.Fatalf("signup: %d %s", res.status, res.raw)
	}
	tok, _ := res.body["token"].(string)
	if tok == "" {
		t.Fatal("signup returned no token")
	}
	return tok
}

func upload(t *testing.T, base, token string) string {
	t.Helper()
	res := do(t, http.MethodPost, base+"/api/upload/", token, uploadBody)
	if res.status != http.StatusCreated {
		t.Fatalf("upload: %d %s", res.status, res.raw)
	}
	code, _ := res.body["code"].(string)
	msg, _ := res.body["message"].(string)
	if code == "" || msg != "Game created successfully. Your game code is: "+code {
		t.Fatalf("unexpected upload response %s", res.raw)
	}
	return code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	res := do(t, http.MethodGet, ts.URL+"/health", "", "")
	if res.status != http.StatusOK || res.body["ok"] != true {
		t.Fatalf("health: %d %s", res.status, res.raw)
	}
}

func TestUploadRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	if res := do(t, http.MethodPost, ts.URL+"/api/upload", "", uploadBody); res.status != http.StatusUnauthorized {
		t.Fatalf("status = %d", res.status)
	}
	if res := do(t, http.MethodPost, ts.URL+"/api/upload", "not-a-jwt", uploadBody); res.status != http.StatusUnauthorized {
		t.Fatalf("status = %d", res.status)
	}
}

func TestUploadValidation(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts.URL, "ada")

	bad := strings.Replace(uploadBody, `["b", "c"]`, `["b", "a"]`, 1)
	res := do(t, http.MethodPost, ts.URL+"/api/upload", tok, bad)
	if res.status != http.StatusBadRequest {
		t.Fatalf("status = %d %s", res.status, res.raw)
	}
	if msg, _ := res.body["message"].(string); msg == "" {
		t.Fatalf("missing message: %s", res.raw)
	}

	res = do(t, http.MethodPost, ts.URL+"/api/upload", tok, `{not json`)
	if res.status != http.StatusBadRequest || res.body["message"] == nil {
		t.Fatalf("bad json: %d %s", res.status, res.raw)
	}
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts.URL, "ada")

	if res := do(t, http.MethodPost, ts.URL+"/auth/signup", "", `{"username":"ADA","password":"hunter2hunter2"}`); res.status != http.StatusConflict {
		t.Fatalf("duplicate signup: %d", res.status)
	}
	if res := do(t, http.MethodPost, ts.URL+"/auth/signup", "", `{"username":"x","password":"hunter2hunter2"}`); res.status != http.StatusBadRequest {
		t.Fatalf("short username: %d", res.status)
	}
	if res := do(t, http.MethodPost, ts.URL+"/auth/login", "", `{"username":"ada","password":"wrong-password"}`); res.status != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", res.status)
	}
	res := do(t, http.MethodPost, ts.URL+"/auth/login", "", `{"username":"ada","password":"hunter2hunter2"}`)
	if res.status != http.StatusOK || res.body["token"] == nil {
		t.Fatalf("login: %d %s", res.status, res.raw)
	}

	res = do(t, http.MethodGet, ts.URL+"/api/check_authenticated/", tok, "")
	if res.body["authenticated"] != true || res.body["username"] != "ada" {
		t.Fatalf("check_authenticated: %s", res.raw)
	}
	res = do(t, http.MethodGet, ts.URL+"/api/check_authenticated", "", "")
	if res.status != http.StatusOK || res.body["authenticated"] != false {
		t.Fatalf("anonymous check_authenticated: %s", res.raw)
	}
}

func TestUploadFetchPlayReport(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts.URL, "ada")
	code := upload(t, ts.URL, tok)

	api := client.New(ts.URL, zerolog.Nop())
	p, err := client.NewLoader(api, zerolog.Nop()).Load(context.Background(), strings.ToLower(code))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.MaxMistakes != 1 || p.Course != "CSC108" || p.Language != "python" {
		t.Fatalf("puzzle = %+v", p)
	}

	rep := client.NewReporter(api, zerolog.Nop())
	s := game.New(p, game.Deps{Reporter: rep})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	for _, g := range [][]string{{"a", "b"}, {"a", "e"}, {"b", "c"}} {
		_ = s.Clear()
		for _, w := range g {
			if _, err := s.Toggle(w); err != nil {
				t.Fatal(err)
			}
		}
		if _, err := s.Submit(); err != nil {
			t.Fatal(err)
		}
	}
	if s.Status() != game.StatusWon {
		t.Fatalf("status = %s", s.Status())
	}
	rep.Wait()

	res := do(t, http.MethodGet, ts.URL+"/api/count/"+code+"/?format=json", "", "")
	if res.status != http.StatusOK || res.body["plays"] != float64(1) || res.body["wins"] != float64(1) {
		t.Fatalf("count: %d %s", res.status, res.raw)
	}

	var dist []stats.GuessCount
	res = do(t, http.MethodGet, ts.URL+"/api/guessdist/"+code, "", "")
	if err := json.Unmarshal(res.raw, &dist); err != nil || len(dist) != 3 {
		t.Fatalf("guessdist: %s", res.raw)
	}
	var times []stats.GuessTime
	res = do(t, http.MethodGet, ts.URL+"/api/timedist/"+code, "", "")
	if err := json.Unmarshal(res.raw, &times); err != nil || len(times) != 3 {
		t.Fatalf("timedist: %s", res.raw)
	}
}

func TestSubmitStatsErrors(t *testing.T) {
	ts := newTestServer(t)
	tok := signup(t, ts.URL, "ada")
	code := upload(t, ts.URL, tok)

	cases := []struct {
		body string
		want int
	}{
		{`{"gameCode":"` + code + `","submittedGuesses":[],"isGameWon":false,"timeToGuess":[]}`, http.StatusBadRequest},
		{`{"gameCode":"` + code + `","submittedGuesses":[["a","b"]],"isGameWon":false,"timeToGuess":[]}`, http.StatusBadRequest},
		{`{"gameCode":"NOPE","submittedGuesses":[["a","b"]],"isGameWon":false,"timeToGuess":[1]}`, http.StatusNotFound},
		{`nope`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		if res := do(t, http.MethodPost, ts.URL+"/api/submit-stats/", "", tc.body); res.status != tc.want {
			t.Errorf("%s: status %d, want %d", tc.body, res.status, tc.want)
		}
	}
	if res := do(t, http.MethodGet, ts.URL+"/api/count/NOPE", "", ""); res.status != http.StatusNotFound {
		t.Fatalf("count unknown: %d", res.status)
	}
}

func TestCatalogRoutes(t *testing.T) {
	ts := newTestServer(t)
	ada := signup(t, ts.URL, "ada")
	bob := signup(t, ts.URL, "bob")
	code := upload(t, ts.URL, ada)

	var items []gameItem
	res := do(t, http.MethodGet, ts.URL+"/api/games?course=CSC108", "", "")
	if err := json.Unmarshal(res.raw, &items); err != nil || len(items) != 1 || items[0].GameCode != code {
		t.Fatalf("games: %s", res.raw)
	}
	if items[0].Course == nil || items[0].Course.Name != "CSC108" {
		t.Fatalf("course missing: %s", res.raw)
	}
	res = do(t, http.MethodGet, ts.URL+"/api/games?course=CSC999", "", "")
	if strings.TrimSpace(string(res.raw)) != "[]" {
		t.Fatalf("filtered games: %s", res.raw)
	}

	var courses []catalog.Course
	res = do(t, http.MethodGet, ts.URL+"/api/courses/", "", "")
	if err := json.Unmarshal(res.raw, &courses); err != nil || len(courses) != 1 {
		t.Fatalf("courses: %s", res.raw)
	}

	res = do(t, http.MethodGet, ts.URL+"/api/instructor/games/", bob, "")
	if strings.TrimSpace(string(res.raw)) != "[]" {
		t.Fatalf("bob sees: %s", res.raw)
	}
	if res := do(t, http.MethodDelete, ts.URL+"/api/instructor/games/"+code, bob, ""); res.status != http.StatusNotFound {
		t.Fatalf("bob delete: %d", res.status)
	}
	if res := do(t, http.MethodDelete, ts.URL+"/api/instructor/games/"+code+"/", ada, ""); res.status != http.StatusNoContent {
		t.Fatalf("ada delete: %d %s", res.status, res.raw)
	}
	if res := do(t, http.MethodGet, ts.URL+"/api/games/code/"+code, "", ""); res.status != http.StatusNotFound {
		t.Fatalf("deleted game still served: %d", res.status)
	}
}

func TestCORSPreflight(t *testing.T) {
	t.Setenv("CLIENT_ORIGIN", "https://play.example.edu")
	ts := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/upload", bytes.NewReader(nil))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "https://play.example.edu" {
		t.Fatalf("allow-origin = %q", got)
	}
}
