package scholium

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

var (
	// errors
	ErrNotFound      = errors.New("scholium not found")
	ErrAlreadyMember = errors.New("already a member of this scholium")
	ErrNotHost       = errors.New("only the host may do this")
	ErrHostRemoval   = errors.New("hosts cannot be removed")
	ErrCodeExhausted = errors.New("could not generate a unique access code")

	// ErrCodeExists is returned by repositories on an access-code uniqueness
	// violation; the service retries generation on it.
	ErrCodeExists = errors.New("access code already in use")
)

type (
	Repository interface {
		// CreateScholium inserts the scholium row and its host membership row
		// in a single transaction; neither is observable without the other.
		// Returns ErrCodeExists on an access-code collision.
		CreateScholium(ctx context.Context, sch Scholium, host Member) (Scholium, error)
		GetScholiumByID(ctx context.Context, id int) (Scholium, error)
		GetScholiumByCode(ctx context.Context, code string) (Scholium, error)
		QueryUserScholiums(ctx context.Context, userID int) ([]Scholium, error)
		// SetAccessCode replaces the code atomically; ErrCodeExists on collision.
		SetAccessCode(ctx context.Context, scholiumID int, code string) error
		DeleteScholium(ctx context.Context, id int) error

		CreateMember(ctx context.Context, m Member) (Member, error)
		GetMember(ctx context.Context, scholiumID, userID int) (Member, error)
		QueryMembers(ctx context.Context, scholiumID int) ([]Member, error)
		CountMembers(ctx context.Context, scholiumID int) (int, error)
		UpdateMemberPermissions(ctx context.Context, scholiumID, userID int, canAddHomework, canCreateSubject bool) error
		DeleteMember(ctx context.Context, memberID int) error
	}

	Service interface {
		Create(ctx context.Context, ownerID int, ns NewScholium) (Scholium, error)
		Join(ctx context.Context, userID int, accessCode string) (Scholium, error)
		RenewAccessCode(ctx context.Context, requesterID, scholiumID int) (string, error)
		UpdateMemberPermissions(ctx context.Context, requesterID, scholiumID, targetUserID int, up UpdatePermissions) error
		RemoveMember(ctx context.Context, requesterID, scholiumID, targetUserID int) error
		MemberState(ctx context.Context, scholiumID, userID int) (MemberState, error)
		QueryByUser(ctx context.Context, userID int) ([]Scholium, error)
		Details(ctx context.Context, scholiumID, userID int) (Details, error)
		Members(ctx context.Context, scholiumID, userID int) ([]Member, error)
		Delete(ctx context.Context, scholiumID int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Create makes a new scholium owned and hosted by ownerID. The access code is
// regenerated on collision, bounded by maxCodeAttempts.
func (svc *service) Create(ctx context.Context, ownerID int, ns NewScholium) (Scholium, error) {
	now := time.Now().UTC()

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateAccessCode()
		if err != nil {
			return Scholium{}, err
		}

		sch := Scholium{
			Name:       ns.Name,
			OwnerID:    ownerID,
			AccessCode: code,
			CreatedAt:  now,
		}
		host := Member{
			UserID:           ownerID,
			IsHost:           true,
			CanAddHomework:   true,
			CanCreateSubject: true,
			JoinedAt:         now,
		}

		sch, err = svc.repo.CreateScholium(ctx, sch, host)
		if err != nil {
			if errors.Cause(err) == ErrCodeExists {
				continue
			}
			return Scholium{}, err
		}
		return sch, nil
	}
	return Scholium{}, ErrCodeExhausted
}

// Join adds userID as a non-host member of the scholium matching accessCode,
// with the default permission flags.
func (svc *service) Join(ctx context.Context, userID int, accessCode string) (Scholium, error) {
	sch, err := svc.repo.GetScholiumByCode(ctx, accessCode)
	if err != nil {
		return Scholium{}, err
	}

	if _, err = svc.repo.GetMember(ctx, sch.ID, userID); err == nil {
		return Scholium{}, ErrAlreadyMember
	} else if errors.Cause(err) != ErrNotFound {
		return Scholium{}, err
	}

	m := Member{
		ScholiumID:       sch.ID,
		UserID:           userID,
		CanAddHomework:   true,
		CanCreateSubject: false,
		JoinedAt:         time.Now().UTC(),
	}
	if _, err = svc.repo.CreateMember(ctx, m); err != nil {
		return Scholium{}, err
	}
	return sch, nil
}

// RenewAccessCode replaces the scholium's code; the old one stops working the
// moment the new one is stored.
func (svc *service) RenewAccessCode(ctx context.Context, requesterID, scholiumID int) (string, error) {
	if err := svc.requireHost(ctx, scholiumID, requesterID); err != nil {
		return "", err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := GenerateAccessCode()
		if err != nil {
			return "", err
		}
		if err = svc.repo.SetAccessCode(ctx, scholiumID, code); err != nil {
			if errors.Cause(err) == ErrCodeExists {
				continue
			}
			return "", err
		}
		return code, nil
	}
	return "", ErrCodeExhausted
}

func (svc *service) UpdateMemberPermissions(ctx context.Context, requesterID, scholiumID, targetUserID int, up UpdatePermissions) error {
	if err := svc.requireHost(ctx, scholiumID, requesterID); err != nil {
		return err
	}
	if _, err := svc.repo.GetMember(ctx, scholiumID, targetUserID); err != nil {
		return err
	}
	// a host's stored flags are irrelevant (State() short-circuits), so
	// writing them is harmless and allowed.
	return svc.repo.UpdateMemberPermissions(ctx, scholiumID, targetUserID, up.CanAddHomework, up.CanCreateSubject)
}

func (svc *service) RemoveMember(ctx context.Context, requesterID, scholiumID, targetUserID int) error {
	if err := svc.requireHost(ctx, scholiumID, requesterID); err != nil {
		return err
	}
	m, err := svc.repo.GetMember(ctx, scholiumID, targetUserID)
	if err != nil {
		return err
	}
	if m.IsHost {
		return ErrHostRemoval
	}
	return svc.repo.DeleteMember(ctx, m.ID)
}

// MemberState is the single authority for capability checks; every mutating
// operation in the homework package consults it.
func (svc *service) MemberState(ctx context.Context, scholiumID, userID int) (MemberState, error) {
	m, err := svc.repo.GetMember(ctx, scholiumID, userID)
	if err != nil {
		return MemberState{}, err
	}
	return m.State(), nil
}

func (svc *service) QueryByUser(ctx context.Context, userID int) ([]Scholium, error) {
	return svc.repo.QueryUserScholiums(ctx, userID)
}

func (svc *service) Details(ctx context.Context, scholiumID, userID int) (Details, error) {
	m, err := svc.repo.GetMember(ctx, scholiumID, userID)
	if err != nil {
		return Details{}, err
	}
	sch, err := svc.repo.GetScholiumByID(ctx, scholiumID)
	if err != nil {
		return Details{}, err
	}
	count, err := svc.repo.CountMembers(ctx, scholiumID)
	if err != nil {
		return Details{}, err
	}
	return Details{Scholium: sch, IsHost: m.IsHost, MemberCount: count}, nil
}

func (svc *service) Members(ctx context.Context, scholiumID, userID int) ([]Member, error) {
	if _, err := svc.repo.GetMember(ctx, scholiumID, userID); err != nil {
		return nil, err
	}
	return svc.repo.QueryMembers(ctx, scholiumID)
}

func (svc *service) Delete(ctx context.Context, scholiumID int) error {
	return svc.repo.DeleteScholium(ctx, scholiumID)
}

func (svc *service) requireHost(ctx context.Context, scholiumID, userID int) error {
	m, err := svc.repo.GetMember(ctx, scholiumID, userID)
	if err != nil {
		return err
	}
	if !m.IsHost {
		return ErrNotHost
	}
	return nil
}
