package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-todo-api/internal/model"
)

const foreignKeyViolation = "23503"

type TodoRepository struct {
	pool *pgxpool.Pool
}

func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

func (r *TodoRepository) CreateList(ctx context.Context, l model.TodoList) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO todolists (id, title, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		l.ID, l.Title, l.IsActive, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create todo list: %w", err)
	}
	return nil
}

func (r *TodoRepository) FindList(ctx context.Context, id string) (model.TodoList, error) {
	var l model.TodoList
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, is_active, created_at, updated_at FROM todolists WHERE id::text = $1`, id).
		Scan(&l.ID, &l.Title, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TodoList{}, model.ErrTodoListNotFound
	}
	if err != nil {
		return model.TodoList{}, fmt.Errorf("find todo list: %w", err)
	}

	items, err := r.itemsFor(ctx, []string{l.ID})
	if err != nil {
		return model.TodoList{}, err
	}
	l.Items = items[l.ID]
	if l.Items == nil {
		l.Items = []model.TodoItem{}
	}
	return l, nil
}

func (r *TodoRepository) ListLists(ctx context.Context, offset int, limit int) ([]model.TodoList, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM todolists`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count todo lists: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, is_active, created_at, updated_at FROM todolists
		 ORDER BY created_at, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list todo lists: %w", err)
	}
	defer rows.Close()

	lists := make([]model.TodoList, 0)
	ids := make([]string, 0)
	for rows.Next() {
		var l model.TodoList
		if err := rows.Scan(&l.ID, &l.Title, &l.IsActive, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan todo list: %w", err)
		}
		lists = append(lists, l)
		ids = append(ids, l.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate todo lists: %w", err)
	}

	items, err := r.itemsFor(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	for i := range lists {
		lists[i].Items = items[lists[i].ID]
		if lists[i].Items == nil {
			lists[i].Items = []model.TodoItem{}
		}
	}
	return lists, total, nil
}

func (r *TodoRepository) UpdateList(ctx context.Context, l model.TodoList) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todolists SET title = $2, is_active = $3, updated_at = $4 WHERE id::text = $1`,
		l.ID, l.Title, l.IsActive, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update todo list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoListNotFound
	}
	return nil
}

// DeleteList removes the list; its items go with it through ON DELETE CASCADE.
func (r *TodoRepository) DeleteList(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todolists WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo list: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoListNotFound
	}
	return nil
}

func (r *TodoRepository) CreateItem(ctx context.Context, it model.TodoItem) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO todoitems (id, name, description, is_complete, todolist_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		it.ID, it.Name, it.Description, it.IsComplete, it.TodoListID, it.CreatedAt, it.UpdatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrTodoListNotFound
	}
	if err != nil {
		return fmt.Errorf("create todo item: %w", err)
	}
	return nil
}

func (r *TodoRepository) FindItem(ctx context.Context, id string) (model.TodoItem, error) {
	var it model.TodoItem
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, is_complete, todolist_id, created_at, updated_at
		 FROM todoitems WHERE id::text = $1`, id).
		Scan(&it.ID, &it.Name, &it.Description, &it.IsComplete, &it.TodoListID, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.TodoItem{}, model.ErrTodoItemNotFound
	}
	if err != nil {
		return model.TodoItem{}, fmt.Errorf("find todo item: %w", err)
	}
	return it, nil
}

func (r *TodoRepository) ListItems(ctx context.Context, offset int, limit int) ([]model.TodoItem, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM todoitems`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count todo items: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, is_complete, todolist_id, created_at, updated_at
		 FROM todoitems ORDER BY created_at, id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list todo items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *TodoRepository) UpdateItem(ctx context.Context, it model.TodoItem) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE todoitems
		 SET name = $2, description = $3, is_complete = $4, todolist_id = $5, updated_at = $6
		 WHERE id::text = $1`,
		it.ID, it.Name, it.Description, it.IsComplete, it.TodoListID, it.UpdatedAt)
	if isForeignKeyViolation(err) {
		return model.ErrTodoListNotFound
	}
	if err != nil {
		return fmt.Errorf("update todo item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoItemNotFound
	}
	return nil
}

func (r *TodoRepository) DeleteItem(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todoitems WHERE id::text = $1`, id)
	if err != nil {
		return fmt.Errorf("delete todo item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTodoItemNotFound
	}
	return nil
}

func (r *TodoRepository) itemsFor(ctx context.Context, listIDs []string) (map[string][]model.TodoItem, error) {
	out := make(map[string][]model.TodoItem, len(listIDs))
	if len(listIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, is_complete, todolist_id, created_at, updated_at
		 FROM todoitems WHERE todolist_id::text = ANY($1) ORDER BY created_at, id`, listIDs)
	if err != nil {
		return nil, fmt.Errorf("load todo items: %w", err)
	}
	defer rows.Close()

	items, err := scanItems(rows)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.TodoListID] = append(out[it.TodoListID], it)
	}
	return out, nil
}

func scanItems(rows pgx.Rows) ([]model.TodoItem, error) {
	items := make([]model.TodoItem, 0)
	for rows.Next() {
		var it model.TodoItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.IsComplete, &it.TodoListID, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan todo item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todo items: %w", err)
	}
	return items, nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
