package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quizbox/internal/app"
	"quizbox/internal/infra/memory"
	"quizbox/internal/infra/security"
	"quizbox/internal/logger"

	"github.com/gin-gonic/gin"
)

type testEnv struct {
	t      *testing.T
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.NewNop()
	store := memory.NewStore()
	cache := memory.NewQuizCache(store, time.Minute)
	attempts := memory.NewAttemptStore()
	svc := Services{
		Accounts: app.NewAccountService(store, security.NewBcryptHasher(4), security.NewJWTService("test-secret", "quizbox", time.Hour), log),
		Quizzes:  app.NewQuizService(store, cache, attempts, log),
		Topics:   app.NewTopicService(store, cache, attempts, log),
		Attempts: app.NewAttemptService(cache, attempts, log),
	}
	return &testEnv{t: t, router: NewRouter(svc, log)}
}

func (e *testEnv) do(method, path, token string, body any) (int, map[string]any) {
	e.t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			e.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code, out
}

func (e *testEnv) register(email string) string {
	e.t.Helper()
	code, body := e.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": email, "password": "password123"})
	if code != http.StatusCreated {
		e.t.Fatalf("register %s: %d %v", email, code, body)
	}
	return body["token"].(string)
}

func (e *testEnv) createQuiz(token string, topic any) string {
	e.t.Helper()
	code, body := e.do(http.MethodPost, "/api/quizzes", token, map[string]any{
		"name":  "Capitals",
		"topic": topic,
		"questions": []map[string]any{
			{"kind": "FillIn", "questionHtml": "<p>Capital of France?</p>", "answer": "Paris", "alternativeAnswers": []string{"paris, france"}},
			{"kind": "MultipleChoice", "questionHtml": "<p>Capital of Peru?</p>", "choices": []string{"Quito", "Lima"}, "correctAnswerIndex": 1},
		},
	})
	if code != http.StatusCreated {
		e.t.Fatalf("create quiz: %d %v", code, body)
	}
	return body["quiz"].(map[string]any)["id"].(string)
}

func (e *testEnv) createTopic(token, name string, parent any) string {
	e.t.Helper()
	code, body := e.do(http.MethodPost, "/api/topics", token, map[string]any{"name": name, "parent": parent})
	if code != http.StatusCreated {
		e.t.Fatalf("create topic %s: %d %v", name, code, body)
	}
	return body["topic"].(map[string]any)["id"].(string)
}

func expectFailure(t *testing.T, code int, body map[string]any, wantCode int, wantMessage string) {
	t.Helper()
	if code != wantCode {
		t.Fatalf("expected status %d, got %d (%v)", wantCode, code, body)
	}
	if body["success"] != false || body["message"] != wantMessage {
		t.Fatalf("expected {success:false, message:%q}, got %v", wantMessage, body)
	}
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("Alice@Example.com ")

	code, body := env.do(http.MethodGet, "/api/auth/me", token, nil)
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("me: %d %v", code, body)
	}
	user := body["user"].(map[string]any)
	if user["email"] != "alice@example.com" {
		t.Fatalf("expected normalized email, got %v", user["email"])
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}

	code, body = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	if code != http.StatusOK || body["token"] == "" {
		t.Fatalf("login: %d %v", code, body)
	}

	code, body = env.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@example.com", "password": "wrong-password"})
	expectFailure(t, code, body, http.StatusUnauthorized, "Invalid email or password.")

	code, body = env.do(http.MethodPost, "/api/auth/register", "", map[string]string{"email": "alice@example.com", "password": "password123"})
	expectFailure(t, code, body, http.StatusConflict, "Email is already registered.")

	code, body = env.do(http.MethodGet, "/api/dashboard", "", nil)
	expectFailure(t, code, body, http.StatusUnauthorized, "Authentication required.")

	code, body = env.do(http.MethodGet, "/api/dashboard", "garbage", nil)
	expectFailure(t, code, body, http.StatusUnauthorized, "Authentication required.")
}

func TestSubmitQuestion(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("alice@example.com")
	quizID := env.createQuiz(token, nil)
	path := "/api/quizzes/" + quizID + "/submit"

	code, body := env.do(http.MethodPost, path, token, `{"questionIndex":0,"response":"PARIS"}`)
	if code != http.StatusOK || body["success"] != true || body["isCorrect"] != true {
		t.Fatalf("expected correct answer, got %d %v", code, body)
	}
	if body["correctAnswer"] != "Paris" {
		t.Fatalf("expected correct answer included, got %v", body)
	}
	if _, ok := body["alternativeAnswers"]; ok {
		t.Fatalf("alternatives only appear on incorrect answers: %v", body)
	}

	code, body = env.do(http.MethodPost, path, token, `{"questionIndex":1,"response":"1"}`)
	if code != http.StatusOK || body["isCorrect"] != false || body["correctAnswerIndex"] != float64(1) {
		t.Fatalf("string index must not match, got %d %v", code, body)
	}

	for _, raw := range []string{
		`{"questionIndex":-1,"response":"x"}`,
		`{"questionIndex":2,"response":"x"}`,
		`{"questionIndex":"1","response":"x"}`,
		`{"questionIndex":"abc","response":"x"}`,
		`{"response":"x"}`,
	} {
		code, body := env.do(http.MethodPost, path, token, raw)
		expectFailure(t, code, body, http.StatusBadRequest, "Invalid question index.")
	}

	code, body = env.do(http.MethodGet, "/api/quizzes/"+quizID+"/attempt", token, nil)
	if code != http.StatusOK {
		t.Fatalf("attempt: %d %v", code, body)
	}
	attempt := body["attempt"].(map[string]any)
	if attempt["answered"] != float64(2) || attempt["correct"] != float64(1) || attempt["complete"] != true {
		t.Fatalf("unexpected attempt summary: %v", attempt)
	}

	code, _ = env.do(http.MethodDelete, "/api/quizzes/"+quizID+"/attempt", token, nil)
	if code != http.StatusOK {
		t.Fatalf("reset attempt: %d", code)
	}
	_, body = env.do(http.MethodGet, "/api/quizzes/"+quizID+"/attempt", token, nil)
	if body["attempt"].(map[string]any)["answered"] != float64(0) {
		t.Fatalf("expected reset attempt, got %v", body)
	}
}

func TestTakeQuizHidesAnswers(t *testing.T) {
	env := newTestEnv(t)
	author := env.register("author@example.com")
	taker := env.register("taker@example.com")
	quizID := env.createQuiz(author, nil)

	code, body := env.do(http.MethodGet, "/api/quizzes/"+quizID+"/take", taker, nil)
	if code != http.StatusOK {
		t.Fatalf("take: %d %v", code, body)
	}
	questions := body["quiz"].(map[string]any)["questions"].([]any)
	for _, q := range questions {
		question := q.(map[string]any)
		for _, field := range []string{"answer", "alternativeAnswers", "correctAnswerIndex", "ignoreCase"} {
			if _, leaked := question[field]; leaked {
				t.Fatalf("field %s leaked to quiz taker: %v", field, question)
			}
		}
	}
}

func TestNotOwnedLooksLikeNotFound(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register("alice@example.com")
	bob := env.register("bob@example.com")
	quizID := env.createQuiz(alice, nil)
	topicID := env.createTopic(alice, "Geography", nil)

	owned, ownedBody := env.do(http.MethodGet, "/api/quizzes/"+quizID, bob, nil)
	missing, missingBody := env.do(http.MethodGet, "/api/quizzes/3f1c1f4e-4a57-4f0e-9d0c-6a2f6d9f0a11", bob, nil)
	if owned != missing || ownedBody["message"] != missingBody["message"] {
		t.Fatalf("not-owned and missing differ: %d %v vs %d %v", owned, ownedBody, missing, missingBody)
	}
	expectFailure(t, owned, ownedBody, http.StatusNotFound, "Quiz not found.")

	code, body := env.do(http.MethodDelete, "/api/quizzes/"+quizID, bob, nil)
	expectFailure(t, code, body, http.StatusNotFound, "Quiz not found.")

	code, body = env.do(http.MethodDelete, "/api/topics/"+topicID, bob, nil)
	expectFailure(t, code, body, http.StatusNotFound, "Topic not found.")

	code, body = env.do(http.MethodPost, "/api/quizzes", bob, map[string]any{"name": "Mine", "topic": topicID, "questions": []any{}})
	expectFailure(t, code, body, http.StatusBadRequest, "Invalid topic.")

	code, body = env.do(http.MethodGet, "/api/quizzes/not-a-uuid", alice, nil)
	expectFailure(t, code, body, http.StatusNotFound, "Quiz not found.")
}

func TestCreateQuizValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("alice@example.com")

	cases := []struct {
		body    any
		message string
	}{
		{`{"name":`, "Invalid request body."},
		{map[string]any{"name": " ", "questions": []any{}}, "Name is required."},
		{map[string]any{"name": "Q", "questions": []any{map[string]any{"kind": "Essay", "questionHtml": "?"}}}, "Unrecognized question type."},
		{map[string]any{"name": "Q", "questions": []any{map[string]any{"kind": "MultipleChoice", "questionHtml": "?", "choices": []string{"a"}, "correctAnswerIndex": 3}}}, "Question 1: invalid question: correct answer index 3 out of range."},
	}
	for _, tc := range cases {
		code, body := env.do(http.MethodPost, "/api/quizzes", token, tc.body)
		expectFailure(t, code, body, http.StatusBadRequest, tc.message)
	}
}

func TestDashboardAndCascadeDelete(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("alice@example.com")
	a := env.createTopic(token, "A", nil)
	a1 := env.createTopic(token, "A1", a)
	env.createTopic(token, "B", nil)
	quizID := env.createQuiz(token, a1)

	code, body := env.do(http.MethodGet, "/api/dashboard", token, nil)
	if code != http.StatusOK {
		t.Fatalf("dashboard: %d %v", code, body)
	}
	topics := body["topics"].([]any)
	if len(topics) != 2 {
		t.Fatalf("expected two roots, got %v", topics)
	}
	first := topics[0].(map[string]any)
	if first["name"] != "A" || len(first["quizzes"].([]any)) != 0 {
		t.Fatalf("unexpected first root: %v", first)
	}
	child := first["subtopics"].([]any)[0].(map[string]any)
	if child["name"] != "A1" || child["quizzes"].([]any)[0].(map[string]any)["id"] != quizID {
		t.Fatalf("unexpected subtopic: %v", child)
	}
	second := topics[1].(map[string]any)
	if second["name"] != "B" || len(second["subtopics"].([]any)) != 0 {
		t.Fatalf("unexpected second root: %v", second)
	}

	code, body = env.do(http.MethodGet, "/api/topics/"+a, token, nil)
	if code != http.StatusOK || len(body["topic"].(map[string]any)["subtopics"].([]any)) != 1 {
		t.Fatalf("topic listing: %d %v", code, body)
	}

	code, _ = env.do(http.MethodDelete, "/api/topics/"+a, token, nil)
	if code != http.StatusOK {
		t.Fatalf("delete topic: %d", code)
	}
	code, body = env.do(http.MethodGet, "/api/quizzes/"+quizID, token, nil)
	expectFailure(t, code, body, http.StatusNotFound, "Quiz not found.")
	code, body = env.do(http.MethodGet, "/api/topics/"+a1, token, nil)
	expectFailure(t, code, body, http.StatusNotFound, "Topic not found.")

	_, body = env.do(http.MethodGet, "/api/auth/me", token, nil)
	user := body["user"].(map[string]any)
	if len(user["topics"].([]any)) != 1 || len(user["quizzes"].([]any)) != 0 {
		t.Fatalf("user lists not updated after cascade: %v", user)
	}
}

func TestMoveTopicRejectsCycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.register("alice@example.com")
	a := env.createTopic(token, "A", nil)
	a1 := env.createTopic(token, "A1", a)

	code, body := env.do(http.MethodPut, "/api/topics/"+a, token, map[string]any{"parent": a1})
	expectFailure(t, code, body, http.StatusBadRequest, "Invalid parent topic.")

	code, body = env.do(http.MethodPut, "/api/topics/"+a1, token, map[string]any{"parent": nil, "name": "Promoted"})
	if code != http.StatusOK {
		t.Fatalf("move to root: %d %v", code, body)
	}
	topic := body["topic"].(map[string]any)
	if topic["parent"] != nil || topic["name"] != "Promoted" {
		t.Fatalf("unexpected topic after move: %v", topic)
	}
	_, body = env.do(http.MethodGet, "/api/dashboard", token, nil)
	if n := len(body["topics"].([]any)); n != 2 {
		t.Fatalf("expected promoted topic at root, got %d roots", n)
	}
}
