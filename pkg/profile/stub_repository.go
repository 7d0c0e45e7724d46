package profile

import (
	"context"
	"sync"
)

// StubRepository is an in-memory Repository for tests.
type StubRepository struct {
	mu     sync.Mutex
	users  map[int]User
	nextId int
}

func NewStubRepository() *StubRepository {
	return &StubRepository{users: make(map[int]User), nextId: 1}
}

func (r *StubRepository) CreateUser(_ context.Context, user User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextId
	r.nextId++
	user.Id = id
	r.users[id] = user
	return id, nil
}

func (r *StubRepository) GetUser(_ context.Context, id int) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *StubRepository) GetUserByUid(_ context.Context, uid string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *StubRepository) UpdateUser(_ context.Context, userId int, user User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userId]; !ok {
		return User{}, ErrUserNotFound
	}
	user.Id = userId
	r.users[userId] = user
	return user, nil
}
