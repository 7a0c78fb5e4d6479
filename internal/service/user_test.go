package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/skadi/internal/domain"
)

const memberID = "eeeeeeee-0000-0000-0000-000000000001"

// mockUserStore implements domain.UserStore.
type mockUserStore struct {
	createFunc func(params domain.CreateUserParams) (*domain.User, error)
	getFunc    func(id pgtype.UUID) (*domain.User, error)

	created     []domain.CreateUserParams
	deactivated []string
}

func (m *mockUserStore) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	m.created = append(m.created, params)
	if m.createFunc != nil {
		return m.createFunc(params)
	}
	return &domain.User{
		ID:        testUUID(memberID),
		Email:     params.Email,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Role:      params.Role,
		Active:    true,
	}, nil
}

func (m *mockUserStore) GetUser(ctx context.Context, id pgtype.UUID) (*domain.User, error) {
	if m.getFunc != nil {
		return m.getFunc(id)
	}
	return nil, domain.NotFound("user.get", "user", id.String())
}

func (m *mockUserStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return nil, domain.NotFound("user.get_by_email", "user", email)
}

func (m *mockUserStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	return nil, nil
}

func (m *mockUserStore) DeactivateUser(ctx context.Context, id pgtype.UUID) error {
	m.deactivated = append(m.deactivated, id.String())
	return nil
}

func (m *mockUserStore) CountUsers(ctx context.Context) (int64, error) {
	return int64(len(m.created)), nil
}

func newTeamFixture(t *testing.T, users *mockUserStore, notifier *mockNotifier) (TeamService, *mockActivity) {
	t.Helper()
	activity := &mockActivity{}
	svc, err := NewTeamService(users, activity, notifier, nil, "https://shop.example.com")
	require.NoError(t, err)
	return svc, activity
}

func TestCreateMember_HashesPasswordAndRecordsActivity(t *testing.T) {
	users := &mockUserStore{}
	notifier := &mockNotifier{}
	svc, activity := newTeamFixture(t, users, notifier)

	user, err := svc.CreateMember(context.Background(), CreateMemberParams{
		Email:     "grace@example.com",
		FirstName: "Grace",
		LastName:  "Hopper",
		Role:      domain.RoleStaff,
		Password:  "correct-horse-battery",
		Actor:     Actor{Name: "Ada", Role: "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", user.Email)

	require.Len(t, users.created, 1)
	hash := users.created[0].PasswordHash
	assert.NotEqual(t, "correct-horse-battery", hash, "plaintext must never reach the store")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct-horse-battery")))

	require.Len(t, activity.entries, 1)
	assert.Equal(t, "member_created", activity.entries[0].Action)
	assert.Equal(t, domain.ActivityCategoryTeam, activity.entries[0].Category)
	assert.Equal(t, "Ada", activity.entries[0].ActorName)

	require.Len(t, notifier.welcomes, 1)
	assert.Equal(t, "grace@example.com", notifier.welcomes[0].Email)
	assert.Equal(t, "https://shop.example.com/admin", notifier.welcomes[0].LoginURL)
}

func TestCreateMember_RejectsUnknownRole(t *testing.T) {
	users := &mockUserStore{}
	svc, activity := newTeamFixture(t, users, nil)

	_, err := svc.CreateMember(context.Background(), CreateMemberParams{
		Email:    "grace@example.com",
		Role:     "superuser",
		Password: "correct-horse-battery",
	})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.EINVALID))
	assert.Empty(t, users.created)
	assert.Empty(t, activity.entries)
}

func TestCreateMember_WelcomeEmailFailureDoesNotFail(t *testing.T) {
	users := &mockUserStore{}
	notifier := &mockNotifier{err: errors.New("smtp unreachable")}
	svc, _ := newTeamFixture(t, users, notifier)

	_, err := svc.CreateMember(context.Background(), CreateMemberParams{
		Email:    "grace@example.com",
		Role:     domain.RoleAdmin,
		Password: "correct-horse-battery",
	})
	assert.NoError(t, err, "the account exists whether or not the email sends")
}

func TestDeactivateMember(t *testing.T) {
	users := &mockUserStore{
		getFunc: func(id pgtype.UUID) (*domain.User, error) {
			return &domain.User{ID: id, Email: "grace@example.com", Active: true}, nil
		},
	}
	svc, activity := newTeamFixture(t, users, nil)

	err := svc.DeactivateMember(context.Background(), memberID, Actor{Name: "Ada", Role: "admin"})
	require.NoError(t, err)

	require.Len(t, users.deactivated, 1)
	assert.Equal(t, memberID, users.deactivated[0])

	require.Len(t, activity.entries, 1)
	assert.Equal(t, "member_deactivated", activity.entries[0].Action)
	assert.Equal(t, "grace@example.com", activity.entries[0].TargetName)
}

func TestDeactivateMember_MissingUser(t *testing.T) {
	users := &mockUserStore{} // getFunc defaults to not found
	svc, activity := newTeamFixture(t, users, nil)

	err := svc.DeactivateMember(context.Background(), memberID, Actor{})
	require.Error(t, err)
	assert.True(t, domain.IsCode(err, domain.ENOTFOUND))
	assert.Empty(t, users.deactivated)
	assert.Empty(t, activity.entries)
}

func TestSalesSummary(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, time.August, d, 0, 0, 0, 0, time.UTC)
	}

	t.Run("margin math uses decimals", func(t *testing.T) {
		orders := &mockOrderStore{}
		orders.salesFunc = func(from, to time.Time) (*domain.SalesSummaryRow, error) {
			return &domain.SalesSummaryRow{OrderCount: 3, RevenueCents: 10000, TotalCostCents: 3333}, nil
		}
		svc, err := NewReportService(orders, nil)
		require.NoError(t, err)

		summary, err := svc.SalesSummary(context.Background(), day(1), day(8))
		require.NoError(t, err)
		assert.Equal(t, int64(3), summary.OrderCount)
		assert.Equal(t, "100.00", summary.Revenue)
		assert.Equal(t, "33.33", summary.Cost)
		assert.Equal(t, "66.67", summary.Margin)
		assert.Equal(t, "66.7", summary.MarginPercent)
	})

	t.Run("zero revenue has zero margin percent", func(t *testing.T) {
		orders := &mockOrderStore{}
		orders.salesFunc = func(from, to time.Time) (*domain.SalesSummaryRow, error) {
			return &domain.SalesSummaryRow{}, nil
		}
		svc, err := NewReportService(orders, nil)
		require.NoError(t, err)

		summary, err := svc.SalesSummary(context.Background(), day(1), day(2))
		require.NoError(t, err)
		assert.Equal(t, "0.0", summary.MarginPercent)
	})

	t.Run("inverted range is rejected", func(t *testing.T) {
		svc, err := NewReportService(&mockOrderStore{}, nil)
		require.NoError(t, err)

		_, err = svc.SalesSummary(context.Background(), day(8), day(1))
		require.Error(t, err)
		assert.True(t, domain.IsCode(err, domain.EINVALID))
	})
}
