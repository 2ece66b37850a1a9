package memory

import (
	"context"
	"sort"

	"github.com/vasiliy-maslov/production-orders/internal/user"
)

type userRepository struct {
	repos
}

func (r userRepository) Create(ctx context.Context, in user.CreateInput) (*user.User, error) {
	defer r.lock()()

	st := r.st()
	for _, u := range st.users {
		if u.Name == in.Name {
			return nil, user.ErrNameTaken
		}
	}
	st.nextUserID++
	u := user.User{ID: st.nextUserID, Name: in.Name, Role: in.Role}
	st.users[u.ID] = u
	return &u, nil
}

func (r userRepository) List(ctx context.Context) ([]user.User, error) {
	defer r.lock()()

	users := make([]user.User, 0, len(r.st().users))
	for _, u := range r.st().users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (r userRepository) GetByName(ctx context.Context, name string) (*user.User, error) {
	defer r.lock()()

	for _, u := range r.st().users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r userRepository) Count(ctx context.Context) (int64, error) {
	defer r.lock()()
	return int64(len(r.st().users)), nil
}
