// Command turbodbcctl is a small smoke-test client for the turbodbc driver:
// connect, run a query or statement, and print the results.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"

	_ "github.com/Platob/turbodbc-go"
)

type Context struct {
	DB *sql.DB
}

type QueryCmd struct {
	SQL  string   `arg:"" help:"SQL query to run."`
	Args []string `short:"a" help:"Positional parameter values, bound as strings."`
}

func (c *QueryCmd) Run(ctx *Context) error {
	args := make([]interface{}, len(c.Args))
	for i, a := range c.Args {
		args[i] = a
	}

	rows, err := ctx.DB.Query(c.SQL, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("columns: %w", err)
	}
	fmt.Println(strings.Join(cols, "\t"))

	dest := make([]interface{}, len(cols))
	scanArgs := make([]interface{}, len(cols))
	for i := range dest {
		scanArgs[i] = &dest[i]
	}

	count := 0
	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		parts := make([]string, len(dest))
		for i, v := range dest {
			parts[i] = fmt.Sprintf("%v", v)
		}
		fmt.Println(strings.Join(parts, "\t"))
		count++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration: %w", err)
	}
	fmt.Fprintf(os.Stderr, "(%d rows)\n", count)
	return nil
}

type ExecCmd struct {
	SQL  string   `arg:"" help:"Statement to execute."`
	Args []string `short:"a" help:"Positional parameter values, bound as strings."`
}

func (c *ExecCmd) Run(ctx *Context) error {
	args := make([]interface{}, len(c.Args))
	for i, a := range c.Args {
		args[i] = a
	}

	result, err := ctx.DB.Exec(c.SQL, args...)
	if err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	affected, _ := result.RowsAffected()
	id, _ := result.LastInsertId()
	fmt.Fprintf(os.Stderr, "rows affected: %d, last insert id: %d\n", affected, id)
	return nil
}

type PingCmd struct{}

func (c *PingCmd) Run(ctx *Context) error {
	if err := ctx.DB.Ping(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	fmt.Println("ok")
	return nil
}

var cli struct {
	DSN     string        `required:"" help:"Native CLI connection string."`
	Timeout time.Duration `default:"30s" help:"Maximum lifetime of a pooled connection."`

	Query QueryCmd `cmd:"" help:"Run a query and print its rows."`
	Exec  ExecCmd  `cmd:"" help:"Run a statement and print the affected row count."`
	Ping  PingCmd  `cmd:"" help:"Verify the connection is alive."`
}

func main() {
	kctx := kong.Parse(&cli, kong.Name("turbodbcctl"),
		kong.Description("smoke-test client for the turbodbc driver"))

	db, err := sql.Open("turbodbc", cli.DSN)
	kctx.FatalIfErrorf(err)
	defer db.Close()

	db.SetConnMaxLifetime(cli.Timeout)

	err = kctx.Run(&Context{DB: db})
	kctx.FatalIfErrorf(err)
}
