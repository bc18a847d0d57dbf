package address

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-account-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockAddressStore struct{ mock.Mock }

func (m *mockAddressStore) Put(ctx context.Context, a *domain.Address) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAddressStore) Get(ctx context.Context, addressID string) (*domain.Address, error) {
	args := m.Called(ctx, addressID)
	if a, _ := args.Get(0).(*domain.Address); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAddressStore) List(ctx context.Context, ownerID string) ([]domain.Address, error) {
	args := m.Called(ctx, ownerID)
	out, _ := args.Get(0).([]domain.Address)
	return out, args.Error(1)
}
func (m *mockAddressStore) Delete(ctx context.Context, addressID string) error {
	return m.Called(ctx, addressID).Error(0)
}
func (m *mockAddressStore) ClearDefault(ctx context.Context, ownerID, exceptID string) error {
	return m.Called(ctx, ownerID, exceptID).Error(0)
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func validInput() domain.AddressInput {
	return domain.AddressInput{
		FullName:     strPtr(" Asha Rao "),
		MobileNumber: strPtr("9876543210"),
		NickName:     strPtr("home"),
		PinCode:      strPtr("560001"),
		AddressLine:  strPtr("12 MG Road"),
		Locality:     strPtr("Ashok Nagar"),
		State:        strPtr("Karnataka"),
		City:         strPtr("Bengaluru"),
	}
}

func TestCreate_DefaultsAddressTypeAndTrims(t *testing.T) {
	repo := &mockAddressStore{}
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Address")).Return(nil)

	a, err := NewService(repo).Create(context.Background(), "owner1", validInput())
	require.NoError(t, err)
	assert.Equal(t, domain.AddressTypeHome, a.AddressType)
	assert.Equal(t, "Asha Rao", a.FullName)
	assert.Equal(t, "owner1", a.UserID)
	assert.NotEmpty(t, a.AddressID)
	assert.Equal(t, "12 MG Road, Asha Rao, Ashok Nagar, Bengaluru, Karnataka - 560001", a.FullAddress())
	repo.AssertNotCalled(t, "ClearDefault", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_DefaultClearsOthersFirst(t *testing.T) {
	repo := &mockAddressStore{}
	var order []string
	repo.On("ClearDefault", mock.Anything, "owner1", mock.AnythingOfType("string")).
		Run(func(mock.Arguments) { order = append(order, "clear") }).Return(nil)
	repo.On("Put", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { order = append(order, "put") }).Return(nil)

	in := validInput()
	in.IsDefault = boolPtr(true)
	a, err := NewService(repo).Create(context.Background(), "owner1", in)
	require.NoError(t, err)
	assert.True(t, a.IsDefault)
	assert.Equal(t, []string{"clear", "put"}, order)
}

func TestCreate_ValidationFailure(t *testing.T) {
	repo := &mockAddressStore{}
	in := validInput()
	in.PinCode = strPtr("12")

	_, err := NewService(repo).Create(context.Background(), "", in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestGet_OtherOwner_IsNotFound(t *testing.T) {
	repo := &mockAddressStore{}
	repo.On("Get", mock.Anything, "a1").Return(&domain.Address{AddressID: "a1", UserID: "owner2"}, nil)

	_, err := NewService(repo).Get(context.Background(), "owner1", "a1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGet_Unscoped(t *testing.T) {
	repo := &mockAddressStore{}
	repo.On("Get", mock.Anything, "a1").Return(&domain.Address{AddressID: "a1", UserID: "owner2"}, nil)

	a, err := NewService(repo).Get(context.Background(), "", "a1")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.AddressID)
}

func TestUpdate_PartialMergeAndDefault(t *testing.T) {
	repo := &mockAddressStore{}
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := &domain.Address{
		AddressID: "a1", UserID: "owner1", FullName: "Asha Rao", MobileNumber: "9876543210",
		NickName: "home", PinCode: "560001", AddressLine: "12 MG Road", Locality: "Ashok Nagar",
		State: "Karnataka", City: "Bengaluru", AddressType: domain.AddressTypeHome, CreatedAt: created,
	}
	repo.On("Get", mock.Anything, "a1").Return(existing, nil)
	repo.On("ClearDefault", mock.Anything, "owner1", "a1").Return(nil)
	repo.On("Put", mock.Anything, mock.MatchedBy(func(a *domain.Address) bool {
		return a.City == "Mysuru" && a.IsDefault && a.AddressType == domain.AddressTypeWork && a.CreatedAt.Equal(created)
	})).Return(nil)

	a, err := NewService(repo).Update(context.Background(), "owner1", "a1", domain.AddressInput{
		City:        strPtr("Mysuru"),
		AddressType: strPtr(domain.AddressTypeWork),
		IsDefault:   boolPtr(true),
	})
	require.NoError(t, err)
	assert.True(t, a.UpdatedAt.After(created))
	repo.AssertExpectations(t)
}

func TestUpdate_InvalidMerge(t *testing.T) {
	repo := &mockAddressStore{}
	repo.On("Get", mock.Anything, "a1").Return(&domain.Address{
		AddressID: "a1", FullName: "x", MobileNumber: "9876543210", NickName: "n", PinCode: "560001",
		AddressLine: "l", Locality: "l", State: "s", City: "c", AddressType: domain.AddressTypeHome,
	}, nil)

	_, err := NewService(repo).Update(context.Background(), "", "a1", domain.AddressInput{AddressType: strPtr("Office")})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockAddressStore{}
	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	err := NewService(repo).Delete(context.Background(), "", "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestList_NewestFirst(t *testing.T) {
	repo := &mockAddressStore{}
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.On("List", mock.Anything, "owner1").Return([]domain.Address{
		{AddressID: "a", CreatedAt: base},
		{AddressID: "b", CreatedAt: base.Add(time.Minute)},
	}, nil)

	out, err := NewService(repo).List(context.Background(), "owner1")
	require.NoError(t, err)
	assert.Equal(t, "b", out[0].AddressID)
}

func TestFullAddress_FillsMissingParts(t *testing.T) {
	a := domain.Address{AddressLine: "12 MG Road", City: "Bengaluru"}
	assert.Equal(t, "12 MG Road, N/A, N/A, Bengaluru, N/A - N/A", a.FullAddress())
}
