package settings

import (
	"database/sql"
	"fmt"

	"f1livetiming/pkg/model"
)

// columns maps every session type to its subscription column. Column names never come from
// input, only values are bound as parameters.
var columns = map[model.SessionType]string{
	model.Practice:   "practice",
	model.Qualifying: "qualifying",
	model.Sprint:     "sprint",
	model.Race:       "race",
}

func buildCreateSubscribersTable() string {
	return `CREATE TABLE IF NOT EXISTS subscribers (
		chatid INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		practice INTEGER NOT NULL DEFAULT 0,
		qualifying INTEGER NOT NULL DEFAULT 0,
		sprint INTEGER NOT NULL DEFAULT 0,
		race INTEGER NOT NULL DEFAULT 0);`
}

func buildSelectChatCommand() (string, func(*sql.Rows) (Subscriptions, error)) {
	return `SELECT practice, qualifying, sprint, race FROM subscribers WHERE chatid = ?`, processSelectChatRows
}

func processSelectChatRows(rows *sql.Rows) (Subscriptions, error) {
	defer rows.Close()

	s := AllDisabled()
	// only can be one row
	if rows.Next() {
		var practice, qualifying, sprint, race int
		if err := rows.Scan(&practice, &qualifying, &sprint, &race); err != nil {
			return s, err
		}
		s[model.Practice] = practice == 1
		s[model.Qualifying] = qualifying == 1
		s[model.Sprint] = sprint == 1
		s[model.Race] = race == 1
	}
	return s, rows.Err()
}

func buildSelectSubscribersCommand(st model.SessionType) (string, func(*sql.Rows) ([]Subscriber, error), error) {
	col, ok := columns[st]
	if !ok {
		return "", nil, fmt.Errorf("unknown session type %q", st)
	}
	return fmt.Sprintf(`SELECT chatid, name FROM subscribers WHERE %s = 1 ORDER BY chatid`, col), processSelectSubscribersRows, nil
}

func processSelectSubscribersRows(rows *sql.Rows) ([]Subscriber, error) {
	defer rows.Close()

	subs := make([]Subscriber, 0)
	for rows.Next() {
		var sub Subscriber
		if err := rows.Scan(&sub.ChatID, &sub.Name); err != nil {
			return subs, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func buildUpsertChatCommand(chatID int64, name string, s Subscriptions) (string, []any) {
	return `INSERT INTO subscribers (chatid, name, practice, qualifying, sprint, race)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(chatid) DO UPDATE SET
			name = excluded.name,
			practice = excluded.practice,
			qualifying = excluded.qualifying,
			sprint = excluded.sprint,
			race = excluded.race`,
		[]any{chatID, name, s.enabledInt(model.Practice), s.enabledInt(model.Qualifying), s.enabledInt(model.Sprint), s.enabledInt(model.Race)}
}

func buildSelectNameCommand() string {
	return `SELECT name FROM subscribers WHERE chatid = ?`
}
