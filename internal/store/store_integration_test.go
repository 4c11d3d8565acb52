package store

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	ordererrors "github.com/abgdnv/online-orders/internal/errors"
	"github.com/abgdnv/online-orders/internal/provisioner"
	"github.com/abgdnv/online-orders/pkg/config"
	"github.com/abgdnv/online-orders/pkg/database"
	"github.com/abgdnv/online-orders/pkg/dbauth"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const skipIntegrationTests = "ORDERS_SKIP_INTEGRATION_TESTS"

// OrderStoreSuite is a test suite for the OrderStore implementation.
type OrderStoreSuite struct {
	suite.Suite                             // Embedding testify suite for structured testing
	pgContainer *postgres.PostgresContainer // PostgreSQL container for integration tests
	connector   *database.Connector         // Opens a fresh connection per call
	store       OrderStore                  //
	logger      *slog.Logger                // Logger for the test suite
	ctx         context.Context             // Context for the test suite, used for cancellation and timeouts
}

// SetupSuite starts PostgreSQL and provisions the table the way a deployment does.
func (s *OrderStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "orders_db"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Build a connector from the mapped address
	host, err := s.pgContainer.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.pgContainer.MappedPort(s.ctx, "5432/tcp")
	require.NoError(s.T(), err)
	s.connector = database.NewConnector(config.DatabaseConfig{
		Host:    host,
		Port:    port.Int(),
		Name:    dbName,
		User:    dbUser,
		SSLMode: "disable",
		Auth:    config.DatabaseAuthPassword,
		Timeout: 5 * time.Second,
	}, dbauth.NewStaticTokenSource(dbPassword))

	// 3. Create the table
	resp := provisioner.New(provisioner.NewSchemaMigrator(s.connector, s.logger), s.logger).
		Handle(s.ctx, provisioner.Request{RequestType: provisioner.RequestCreate})
	require.Equal(s.T(), provisioner.StatusSuccess, resp.Status, resp.Reason)

	s.store = NewPgStore(s.connector)
	s.logger.Info("Initialization complete for OrderStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *OrderStoreSuite) TearDownSuite() {
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		}
	}
}

// SetupTest empties the table so that every test starts from a known state.
func (s *OrderStoreSuite) SetupTest() {
	err := s.connector.WithConn(s.ctx, func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "TRUNCATE TABLE "+TableName)
		return err
	})
	require.NoError(s.T(), err)
}

func (s *OrderStoreSuite) Test_List_Empty() {
	// when
	orders, err := s.store.List(s.ctx)
	// then
	s.Require().NoError(err)
	s.NotNil(orders)
	s.Empty(orders)
}

func (s *OrderStoreSuite) Test_Insert_ThenList() {
	// when
	err := s.store.Insert(s.ctx, "alice")
	// then
	s.Require().NoError(err)
	orders, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]Order{{Username: "alice"}}, orders)
}

func (s *OrderStoreSuite) Test_Insert_Duplicate() {
	// given
	s.Require().NoError(s.store.Insert(s.ctx, "bob"))
	// when
	err := s.store.Insert(s.ctx, "bob")
	// then
	s.ErrorIs(err, ordererrors.ErrOrderAlreadyExists)
	s.ErrorIs(err, ordererrors.ErrCreateOrder)
	orders, listErr := s.store.List(s.ctx)
	s.Require().NoError(listErr)
	s.Equal([]Order{{Username: "bob"}}, orders)
}

func (s *OrderStoreSuite) Test_Insert_TooLong() {
	// when
	err := s.store.Insert(s.ctx, strings.Repeat("x", 46))
	// then
	s.ErrorIs(err, ordererrors.ErrCreateOrder)
	s.NotErrorIs(err, ordererrors.ErrOrderAlreadyExists)
}

func (s *OrderStoreSuite) Test_Injection_StoredAsData() {
	// given
	s.Require().NoError(s.store.Insert(s.ctx, "carol"))
	payload := "' OR '1'='1"
	// when
	err := s.store.Insert(s.ctx, payload)
	// then
	s.Require().NoError(err)
	orders, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]Order{{Username: "carol"}, {Username: payload}}, orders)

	// deleting the payload removes only that row
	deleted, err := s.store.Delete(s.ctx, payload)
	s.Require().NoError(err)
	s.Equal(int64(1), deleted)
	orders, err = s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Equal([]Order{{Username: "carol"}}, orders)
}

func (s *OrderStoreSuite) Test_Delete_Idempotent() {
	testCases := []struct {
		name        string
		existing    []string
		username    string
		wantDeleted int64
	}{
		{name: "present", existing: []string{"dave", "erin"}, username: "dave", wantDeleted: 1},
		{name: "absent", existing: []string{"erin"}, username: "dave", wantDeleted: 0},
	}
	for _, tc := range testCases {
		s.Run(tc.name, func() {
			// given
			s.SetupTest()
			for _, u := range tc.existing {
				s.Require().NoError(s.store.Insert(s.ctx, u))
			}
			// when
			deleted, err := s.store.Delete(s.ctx, tc.username)
			// then
			s.Require().NoError(err)
			s.Equal(tc.wantDeleted, deleted)
			orders, err := s.store.List(s.ctx)
			s.Require().NoError(err)
			s.NotContains(orders, Order{Username: tc.username})
			s.Contains(orders, Order{Username: "erin"})
		})
	}
}

func TestOrderStoreSuite(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests")
	}
	suite.Run(t, new(OrderStoreSuite))
}

func Test_PgStore_ConnectFailure(t *testing.T) {
	// given
	connector := database.NewConnector(config.DatabaseConfig{
		Host:    "127.0.0.1",
		Port:    1,
		Name:    "orders_db",
		User:    "user",
		SSLMode: "disable",
		Timeout: 500 * time.Millisecond,
	}, dbauth.NewStaticTokenSource("password"))
	s := NewPgStore(connector)
	// when
	err := s.Insert(context.Background(), "alice")
	_, delErr := s.Delete(context.Background(), "alice")
	_, listErr := s.List(context.Background())
	// then
	assert.ErrorIs(t, err, ordererrors.ErrConnect)
	assert.ErrorIs(t, err, ordererrors.ErrCreateOrder)
	assert.ErrorIs(t, delErr, ordererrors.ErrCancelOrder)
	assert.ErrorIs(t, listErr, ordererrors.ErrListOrders)
}
