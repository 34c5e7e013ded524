package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/SvenDH/card-wars/game"
)

var ErrUserExists = errors.New("user already exists")

type Repository struct {
	Db *sql.DB
}

// OpenDB opens a sqlite database. A single connection keeps ":memory:" databases
// shared across callers.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

func NewRepository(db *sql.DB) (*Repository, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS user (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			password TEXT
		);
		CREATE TABLE IF NOT EXISTS card (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			image TEXT NOT NULL DEFAULT '',
			attack INTEGER NOT NULL,
			defense INTEGER NOT NULL,
			cost INTEGER NOT NULL CHECK (cost >= 0)
		);
	`)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	return &Repository{Db: db}, nil
}

type User struct {
	Id       int64
	Name     string
	Password sql.NullString
}

func (repo *Repository) AddUser(name string) (*User, error) {
	if repo.FindUserByName(name) != nil {
		return nil, ErrUserExists
	}
	res, err := repo.Db.Exec("INSERT INTO user(name) values(?)", name)
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	id, _ := res.LastInsertId()
	return &User{Id: id, Name: name}, nil
}

func (repo *Repository) SetPassword(user *User, password string) error {
	if err := repo.execWrap("UPDATE user SET password = ? WHERE id = ?", password, user.Id); err != nil {
		return err
	}
	user.Password = sql.NullString{String: password, Valid: true}
	return nil
}

func (repo *Repository) FindUserByName(name string) *User {
	row := repo.Db.QueryRow("SELECT id, name, password FROM user where name = ? LIMIT 1", name)
	var user User
	if err := row.Scan(&user.Id, &user.Name, &user.Password); err != nil {
		return nil
	}
	return &user
}

// SeedCards fills the card table when it is empty. It reports how many cards were
// inserted.
func (repo *Repository) SeedCards(ctx context.Context, cards []*game.Card) (int, error) {
	var n int
	if err := repo.Db.QueryRowContext(ctx, "SELECT COUNT(*) FROM card").Scan(&n); err != nil {
		return 0, fmt.Errorf("error in db execution: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	tx, err := repo.Db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error in db execution: %w", err)
	}
	defer tx.Rollback()
	for _, c := range cards {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO card(id, name, image, attack, defense, cost) values(?, ?, ?, ?, ?, ?)",
			c.Id, c.Name, c.Image, c.Attack, c.Defense, c.Cost,
		)
		if err != nil {
			return 0, fmt.Errorf("error in db execution: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error in db execution: %w", err)
	}
	return len(cards), nil
}

// Cards makes the repository a game.CatalogSource.
func (repo *Repository) Cards(ctx context.Context) ([]*game.Card, error) {
	rows, err := repo.Db.QueryContext(ctx, "SELECT id, name, image, attack, defense, cost FROM card ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("error in db execution: %w", err)
	}
	defer rows.Close()
	cards := []*game.Card{}
	for rows.Next() {
		var c game.Card
		if err := rows.Scan(&c.Id, &c.Name, &c.Image, &c.Attack, &c.Defense, &c.Cost); err != nil {
			return nil, fmt.Errorf("error in db execution: %w", err)
		}
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

func (repo *Repository) execWrap(query string, args ...any) error {
	if _, err := repo.Db.Exec(query, args...); err != nil {
		return fmt.Errorf("error in db execution: %w", err)
	}
	return nil
}
