package customer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/subtrackhq/subtrack-backend/internal/modules/user"
)

type fakeRepo struct {
	customers map[string]*Customer
}

func newFakeRepo() *fakeRepo { return &fakeRepo{customers: map[string]*Customer{}} }

func (f *fakeRepo) CreateCustomer(ctx context.Context, c *Customer) error {
	f.customers[c.ID.String()] = c
	return nil
}

func (f *fakeRepo) GetCustomerByID(ctx context.Context, ownerID, id string) (*Customer, error) {
	c, ok := f.customers[id]
	if !ok || c.OwnerID.String() != ownerID {
		return nil, errors.New("no rows")
	}
	return c, nil
}

func (f *fakeRepo) GetCustomerByPortalUser(ctx context.Context, portalUserID string) (*Customer, error) {
	for _, c := range f.customers {
		if c.PortalUserID != nil && c.PortalUserID.String() == portalUserID {
			return c, nil
		}
	}
	return nil, errors.New("no rows")
}

func (f *fakeRepo) ListCustomers(ctx context.Context, ownerID string) ([]*Customer, error) {
	var out []*Customer
	for _, c := range f.customers {
		if c.OwnerID.String() == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) LinkPortalUser(ctx context.Context, id, portalUserID string) error {
	uid, err := uuid.Parse(portalUserID)
	if err != nil {
		return err
	}
	f.customers[id].PortalUserID = &uid
	return nil
}

type fakeUserRepo struct {
	created []*user.User
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *user.User) error {
	f.created = append(f.created, u)
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*user.User, error) {
	return nil, errors.New("no rows")
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	return nil, errors.New("no rows")
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return nil, errors.New("no rows")
}

func TestCreateCustomerRequiresNameAndEmail(t *testing.T) {
	svc := NewService(newFakeRepo(), user.NewService(&fakeUserRepo{}), "http://portal.test")

	_, err := svc.CreateCustomer(context.Background(), uuid.NewString(), CreateCustomerRequest{Name: "Acme"})
	assert.ErrorContains(t, err, "required")
}

func TestCreateCustomerNormalisesEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, user.NewService(&fakeUserRepo{}), "http://portal.test")

	c, err := svc.CreateCustomer(context.Background(), uuid.NewString(), CreateCustomerRequest{
		Name:  "Acme Corp",
		Email: "Billing@Acme.COM",
	})
	require.NoError(t, err)
	assert.Equal(t, "billing@acme.com", c.Email)
}

func TestInvitePortalUserProvisionsAccount(t *testing.T) {
	repo := newFakeRepo()
	userRepo := &fakeUserRepo{}
	svc := NewService(repo, user.NewService(userRepo), "http://portal.test")

	ownerID := uuid.NewString()
	c, err := svc.CreateCustomer(context.Background(), ownerID, CreateCustomerRequest{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	})
	require.NoError(t, err)

	invite, err := svc.InvitePortalUser(context.Background(), ownerID, c.ID.String())
	require.NoError(t, err)

	assert.Contains(t, invite.Username, "billing-")
	assert.Len(t, invite.Password, 12)
	assert.Equal(t, "http://portal.test", invite.PortalURL)

	require.Len(t, userRepo.created, 1)
	assert.Equal(t, user.ModePortal, userRepo.created[0].Mode)
	assert.Equal(t, "billing@acme.com", userRepo.created[0].Email)

	require.NotNil(t, c.PortalUserID)
	assert.Equal(t, userRepo.created[0].ID, *c.PortalUserID)
}

func TestInvitePortalUserRejectsSecondInvite(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, user.NewService(&fakeUserRepo{}), "http://portal.test")

	ownerID := uuid.NewString()
	c, err := svc.CreateCustomer(context.Background(), ownerID, CreateCustomerRequest{
		Name:  "Acme Corp",
		Email: "billing@acme.com",
	})
	require.NoError(t, err)

	_, err = svc.InvitePortalUser(context.Background(), ownerID, c.ID.String())
	require.NoError(t, err)

	_, err = svc.InvitePortalUser(context.Background(), ownerID, c.ID.String())
	assert.ErrorContains(t, err, "already has a portal account")
}

func TestInvitePortalUserUnknownCustomer(t *testing.T) {
	svc := NewService(newFakeRepo(), user.NewService(&fakeUserRepo{}), "http://portal.test")

	_, err := svc.InvitePortalUser(context.Background(), uuid.NewString(), uuid.NewString())
	assert.ErrorContains(t, err, "customer not found")
}
