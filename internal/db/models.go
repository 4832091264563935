package db

import (
	"context"
	"fmt"
)

type User struct {
	ID       int64  `gorm:"primaryKey;autoIncrement"`
	Name     string `gorm:"size:250;not null;index"`
	Email    string `gorm:"size:250;not null;unique"`
	Password string `gorm:"size:250;not null"`
	Tasks    []Task `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (User) TableName() string { return "user" }

// Task.OwnerName is the owner's display name and is what dashboards list by.
// UserID carries the real reference.
type Task struct {
	ID        int64  `gorm:"primaryKey;autoIncrement"`
	TaskName  string `gorm:"column:task_name;size:250;not null;index"`
	DueDate   Date   `gorm:"column:due_date;not null"`
	OwnerName string `gorm:"column:name;size:250;not null;index"`
	UserID    int64  `gorm:"not null;index"`
}

func (Task) TableName() string { return "task" }

// Users

func (s *Store) CreateUser(ctx context.Context, name, email, password string) (*User, error) {
	u := User{Name: name, Email: email, Password: password}
	if err := s.db.WithContext(ctx).Create(&u).Error; err != nil {
		return nil, fmt.Errorf("insert user: %w", translate(err))
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("query user by email: %w", translate(err))
	}
	return &u, nil
}

// UserByName returns the oldest user with that name. Names are not unique.
func (s *Store) UserByName(ctx context.Context, name string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("name = ?", name).Order("id").First(&u).Error
	if err != nil {
		return nil, fmt.Errorf("query user by name: %w", translate(err))
	}
	return &u, nil
}

// Tasks

func (s *Store) TasksByOwner(ctx context.Context, ownerName string) ([]Task, error) {
	var tasks []Task
	err := s.db.WithContext(ctx).
		Where("name = ?", ownerName).
		Order("due_date, id").
		Find(&tasks).Error
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", translate(err))
	}
	return tasks, nil
}

// TaskNameExists checks across every user's tasks, not only the caller's.
func (s *Store) TaskNameExists(ctx context.Context, taskName string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Task{}).Where("task_name = ?", taskName).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("count tasks: %w", translate(err))
	}
	return n > 0, nil
}

func (s *Store) CreateTask(ctx context.Context, owner *User, taskName string, due Date) (*Task, error) {
	t := Task{
		TaskName:  taskName,
		DueDate:   due,
		OwnerName: owner.Name,
		UserID:    owner.ID,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("insert task: %w", translate(err))
	}
	return &t, nil
}

func (s *Store) TaskByID(ctx context.Context, id int64) (*Task, error) {
	var t Task
	if err := s.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, fmt.Errorf("query task %d: %w", id, translate(err))
	}
	return &t, nil
}

// UpdateTask overwrites the name and due date only.
func (s *Store) UpdateTask(ctx context.Context, id int64, taskName string, due Date) error {
	res := s.db.WithContext(ctx).Model(&Task{}).Where("id = ?", id).Updates(map[string]any{
		"task_name": taskName,
		"due_date":  due,
	})
	if res.Error != nil {
		return fmt.Errorf("update task %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update task %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&Task{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete task %d: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	return nil
}
