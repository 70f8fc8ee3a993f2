package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/go-chi/httplog/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/vadimbarashkov/shortlinks/internal/entity"
	"github.com/vadimbarashkov/shortlinks/internal/metrics"
	"github.com/vadimbarashkov/shortlinks/internal/usecase"
)

type HandlersTestSuite struct {
	suite.Suite
	logger        *httplog.Logger
	auth          *Authenticator
	token         string
	errUnknown    error
	createdAt     time.Time
	shortenerMock *MockShortener
	resolverMock  *MockResolver
	queryMock     *MockQuery
	server        *httptest.Server
	e             *httpexpect.Expect
}

func (suite *HandlersTestSuite) SetupSuite() {
	suite.logger = httplog.NewLogger("", httplog.Options{Writer: io.Discard})
	suite.auth = NewAuthenticator(testSecret)
	suite.token = signToken(suite.T(), testSecret, jwt.MapClaims{"userId": "owner1"})
	suite.errUnknown = errors.New("unknown error")
	suite.createdAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *HandlersTestSuite) SetupSubTest() {
	suite.shortenerMock = new(MockShortener)
	suite.resolverMock = new(MockResolver)
	suite.queryMock = new(MockQuery)

	router := NewRouter(suite.logger, suite.auth, Services{
		Shortener: suite.shortenerMock,
		Resolver:  suite.resolverMock,
		Query:     suite.queryMock,
	}, WithMetrics(metrics.New()))
	suite.server = httptest.NewServer(router)
	suite.T().Cleanup(func() {
		suite.server.Close()
	})

	suite.e = httpexpect.WithConfig(httpexpect.Config{
		BaseURL:  suite.server.URL,
		Reporter: httpexpect.NewAssertReporter(suite.T()),
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	})
}

func (suite *HandlersTestSuite) TearDownSubTest() {
	suite.shortenerMock.AssertExpectations(suite.T())
	suite.resolverMock.AssertExpectations(suite.T())
	suite.queryMock.AssertExpectations(suite.T())
}

func (suite *HandlersTestSuite) bearer() string {
	return "Bearer " + suite.token
}

func (suite *HandlersTestSuite) link(code, longURL string, visits int64) *entity.Link {
	return entity.NewLink(&entity.URL{
		Code:      code,
		LongURL:   longURL,
		OwnerID:   "owner1",
		Visits:    visits,
		CreatedAt: suite.createdAt,
	}, suite.server.URL)
}

func (suite *HandlersTestSuite) TestPing() {
	suite.Run("success", func() {
		suite.e.GET("/api/v1/ping").
			Expect().
			Status(http.StatusOK).
			Text().IsEqual("pong")
	})
}

func (suite *HandlersTestSuite) TestHealth() {
	suite.Run("success", func() {
		suite.e.GET("/health").
			Expect().
			Status(http.StatusOK).
			JSON().Object().HasValue("status", "OK")
	})
}

func (suite *HandlersTestSuite) TestDocs() {
	suite.Run("swagger file", func() {
		suite.e.GET("/docs/swagger.yml").
			Expect().
			Status(http.StatusOK).
			Body().Contains("/api/v1/shorten")
	})

	suite.Run("metrics", func() {
		suite.e.GET("/api/v1/ping").Expect().Status(http.StatusOK)

		suite.e.GET("/metrics").
			Expect().
			Status(http.StatusOK).
			Body().Contains("shortlinks_http_requests_total")
	})
}

func (suite *HandlersTestSuite) TestShortenURL() {
	const path = "/api/v1/shorten"

	suite.Run("unauthenticated", func() {
		resp := suite.e.POST(path).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusUnauthorized).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("code", codeUnauthenticated)
	})

	suite.Run("empty request body", func() {
		resp := suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("code", codeInvalidRequest)
	})

	suite.Run("invalid request body", func() {
		resp := suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON("invalid body").
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.ContainsKey("message")
	})

	suite.Run("validation error", func() {
		resp := suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"custom_code": "ab"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object()

		resp.HasValue("status", "error")
		resp.HasValue("code", codeInvalidURL)
		resp.Value("errors").Array().Length().IsEqual(2)
		resp.Value("errors").Array().Value(0).Object().
			HasValue("field", "long_url").
			ContainsKey("message")
	})

	suite.Run("invalid url", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, usecase.ShortenParams{
				LongURL: "not-a-url",
				OwnerID: "owner1",
				BaseURL: suite.server.URL,
			}).
			Once().
			Return(nil, fmt.Errorf("shorten: %w", entity.ErrInvalidURL))

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "not-a-url"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().HasValue("code", codeInvalidURL)
	})

	suite.Run("invalid custom code", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, mock.AnythingOfType("usecase.ShortenParams")).
			Once().
			Return(nil, entity.ErrInvalidCode)

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "https://example.com", "custom_code": "api"}).
			Expect().
			Status(http.StatusBadRequest).
			JSON().Object().HasValue("code", codeInvalidCode)
	})

	suite.Run("code taken", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, mock.AnythingOfType("usecase.ShortenParams")).
			Once().
			Return(nil, entity.ErrCodeTaken)

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "https://y.com", "custom_code": "promo"}).
			Expect().
			Status(http.StatusConflict).
			JSON().Object().HasValue("code", codeCodeTaken)
	})

	suite.Run("exhausted", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, mock.AnythingOfType("usecase.ShortenParams")).
			Once().
			Return(nil, entity.ErrExhausted)

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusServiceUnavailable).
			JSON().Object().HasValue("code", codeExhausted)
	})

	suite.Run("store unavailable", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, mock.AnythingOfType("usecase.ShortenParams")).
			Once().
			Return(nil, fmt.Errorf("%w: %w", entity.ErrStoreUnavailable, suite.errUnknown))

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusServiceUnavailable).
			JSON().Object().HasValue("code", codeStoreUnavailable)
	})

	suite.Run("server error", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, mock.AnythingOfType("usecase.ShortenParams")).
			Once().
			Return(nil, suite.errUnknown)

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusInternalServerError).
			JSON().Object().HasValue("code", codeInternal)
	})

	suite.Run("success", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, usecase.ShortenParams{
				LongURL:    "https://example.com/a/b",
				OwnerID:    "owner1",
				CustomCode: "promo",
				BaseURL:    suite.server.URL,
			}).
			Once().
			Return(suite.link("promo", "https://example.com/a/b", 0), nil)

		resp := suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithJSON(map[string]string{"long_url": "https://example.com/a/b", "custom_code": "promo"}).
			Expect().
			Status(http.StatusCreated).
			JSON().Object()

		resp.HasValue("code", "promo")
		resp.HasValue("long_url", "https://example.com/a/b")
		resp.HasValue("short_url", suite.server.URL+"/promo")
	})

	suite.Run("forwarded proto", func() {
		suite.shortenerMock.
			On("Shorten", mock.Anything, mock.MatchedBy(func(p usecase.ShortenParams) bool {
				return p.BaseURL == "https://"+suite.server.Listener.Addr().String()
			})).
			Once().
			Return(suite.link("abc123", "https://example.com", 0), nil)

		suite.e.POST(path).
			WithHeader("Authorization", suite.bearer()).
			WithHeader("X-Forwarded-Proto", "https").
			WithJSON(map[string]string{"long_url": "https://example.com"}).
			Expect().
			Status(http.StatusCreated)
	})
}

func (suite *HandlersTestSuite) TestDecode() {
	const path = "/api/v1/decode/{code}"

	suite.Run("url not found", func() {
		suite.resolverMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("", entity.ErrURLNotFound)

		suite.e.GET(path, "abc123").
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().HasValue("code", codeNotFound)
	})

	suite.Run("store unavailable", func() {
		suite.resolverMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("", entity.ErrStoreUnavailable)

		suite.e.GET(path, "abc123").
			Expect().
			Status(http.StatusServiceUnavailable).
			JSON().Object().HasValue("code", codeStoreUnavailable)
	})

	suite.Run("success", func() {
		suite.resolverMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("https://example.com/a/b", nil)

		suite.e.GET(path, "abc123").
			Expect().
			Status(http.StatusOK).
			JSON().Object().HasValue("long_url", "https://example.com/a/b")
	})
}

func (suite *HandlersTestSuite) TestRedirect() {
	suite.Run("url not found", func() {
		suite.resolverMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("", entity.ErrURLNotFound)

		suite.e.GET("/{code}", "abc123").
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().HasValue("code", codeNotFound)
	})

	suite.Run("success", func() {
		suite.resolverMock.
			On("Resolve", mock.Anything, "abc123").
			Once().
			Return("https://example.com/a/b", nil)

		suite.e.GET("/{code}", "abc123").
			Expect().
			Status(http.StatusFound).
			Header("Location").IsEqual("https://example.com/a/b")
	})
}

func (suite *HandlersTestSuite) TestStats() {
	const path = "/api/v1/stats/{code}"

	suite.Run("unauthenticated", func() {
		suite.e.GET(path, "abc123").
			Expect().
			Status(http.StatusUnauthorized)
	})

	suite.Run("not found or denied", func() {
		suite.queryMock.
			On("Stats", mock.Anything, "abc123", "owner1", suite.server.URL).
			Once().
			Return(nil, entity.ErrNotFoundOrDenied)

		suite.e.GET(path, "abc123").
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusNotFound).
			JSON().Object().HasValue("code", codeNotFoundOrDenied)
	})

	suite.Run("success", func() {
		suite.queryMock.
			On("Stats", mock.Anything, "abc123", "owner1", suite.server.URL).
			Once().
			Return(suite.link("abc123", "https://example.com", 7), nil)

		resp := suite.e.GET(path, "abc123").
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusOK).
			JSON().Object()

		resp.HasValue("code", "abc123")
		resp.HasValue("long_url", "https://example.com")
		resp.HasValue("short_url", suite.server.URL+"/abc123")
		resp.HasValue("visits", 7)
		resp.HasValue("created_at", suite.createdAt.Format(time.RFC3339))
	})
}

func (suite *HandlersTestSuite) TestListURLs() {
	const path = "/api/v1/urls"

	suite.Run("unauthenticated", func() {
		suite.e.GET(path).
			WithHeader("Authorization", "Bearer "+signToken(suite.T(), "other-secret", jwt.MapClaims{"userId": "owner1"})).
			Expect().
			Status(http.StatusUnauthorized)
	})

	suite.Run("empty", func() {
		suite.queryMock.
			On("List", mock.Anything, "owner1", suite.server.URL).
			Once().
			Return([]entity.Link{}, nil)

		suite.e.GET(path).
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("success", func() {
		suite.queryMock.
			On("List", mock.Anything, "owner1", suite.server.URL).
			Once().
			Return([]entity.Link{
				*suite.link("second", "https://example.com/2", 0),
				*suite.link("first1", "https://example.com/1", 3),
			}, nil)

		arr := suite.e.GET(path).
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusOK).
			JSON().Array()

		arr.Length().IsEqual(2)
		arr.Value(0).Object().HasValue("code", "second")
		arr.Value(1).Object().HasValue("visits", 3)
	})
}

func (suite *HandlersTestSuite) TestSearchURLs() {
	const path = "/api/v1/urls/search"

	suite.Run("short query", func() {
		suite.queryMock.
			On("Search", mock.Anything, "owner1", "ab", suite.server.URL).
			Once().
			Return([]entity.Link{}, nil)

		suite.e.GET(path).
			WithQuery("q", "ab").
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusOK).
			JSON().Array().IsEmpty()
	})

	suite.Run("store unavailable", func() {
		suite.queryMock.
			On("Search", mock.Anything, "owner1", "example", suite.server.URL).
			Once().
			Return(nil, entity.ErrStoreUnavailable)

		suite.e.GET(path).
			WithQuery("q", "example").
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusServiceUnavailable)
	})

	suite.Run("success", func() {
		suite.queryMock.
			On("Search", mock.Anything, "owner1", "example", suite.server.URL).
			Once().
			Return([]entity.Link{*suite.link("abc123", "https://example.com", 1)}, nil)

		suite.e.GET(path).
			WithQuery("q", "example").
			WithHeader("Authorization", suite.bearer()).
			Expect().
			Status(http.StatusOK).
			JSON().Array().Value(0).Object().HasValue("code", "abc123")
	})
}

func TestHandlers(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}
