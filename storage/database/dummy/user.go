package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/scholium-app/scholium/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email && !isExcluded(*usr, excludedUsers) {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}

	usr.ID = repo.db.nextPK()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		users = append(users, *usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateProfile(ctx context.Context, id int, name, pictureURL string, updatedAt time.Time) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if name != "" {
		usr.Name = name
	}
	if pictureURL != "" {
		usr.ProfilePictureURL = pictureURL
	}
	usr.UpdatedAt = updatedAt
	return *usr, nil
}

func (repo *userRepository) SetPasswordHash(ctx context.Context, id int, hash []byte, updatedAt time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.PasswordHash = hash
	usr.UpdatedAt = updatedAt
	return nil
}

func (repo *userRepository) SetEmailVerified(ctx context.Context, id int, updatedAt time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.EmailVerified = true
	usr.UpdatedAt = updatedAt
	return nil
}

func (repo *userRepository) SetRole(ctx context.Context, id int, role string, updatedAt time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	usr.Role = role
	usr.UpdatedAt = updatedAt
	return nil
}

func (repo *userRepository) CountAdmins(ctx context.Context) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, usr := range repo.db.users {
		if usr.IsAdmin() {
			count++
		}
	}
	return count, nil
}

func (repo *userRepository) DeleteUser(ctx context.Context, id int) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}

	for token, sess := range repo.db.sessions {
		if sess.UserID == id {
			delete(repo.db.sessions, token)
		}
	}
	for key := range repo.db.completions {
		if key.userID == id {
			delete(repo.db.completions, key)
		}
	}
	// created_by cascades in the schema, so authored homework goes too
	for hwID, hw := range repo.db.homework {
		if hw.CreatedBy == id {
			repo.db.deleteHomeworkCascade(hwID)
		}
	}
	for mID, m := range repo.db.members {
		if m.UserID == id {
			delete(repo.db.members, mID)
		}
	}
	for sID, sch := range repo.db.scholiums {
		if sch.OwnerID == id {
			repo.db.deleteScholiumCascade(sID)
		}
	}
	delete(repo.db.users, id)
	return nil
}

func isExcluded(usr user.User, excludedUsers []user.User) bool {
	for _, excl := range excludedUsers {
		if excl.ID == usr.ID {
			return true
		}
	}
	return false
}
