package sqldantic_test

import (
	"context"
	"fmt"
	"time"

	"github.com/aachurin/sqldantic"
	"github.com/aachurin/sqldantic/sqltype"
)

func ExampleBase_Table() {
	type Track struct {
		ID     uint   `sqld:"primaryKey"`
		Title  string `sqld:"required"`
		Length time.Duration
	}

	b, err := sqldantic.NewBase(nil)
	if err != nil {
		panic(err)
	}
	b.MustTable(&Track{})

	stmts, err := b.DDL(sqltype.Postgres).CreateAllSQL()
	if err != nil {
		panic(err)
	}
	fmt.Println(stmts[0])
	// Output: CREATE TABLE "tracks" ("id" bigserial, "title" text NOT NULL, "length" bigint NOT NULL, PRIMARY KEY ("id"))
}

func ExampleBase_Validate() {
	type Account struct {
		ID    uint   `sqld:"primaryKey"`
		Email string `sqld:"required;validate:email"`
		Age   int    `sqld:"gte:18;lte:130"`
	}

	b, err := sqldantic.NewBase(nil)
	if err != nil {
		panic(err)
	}
	b.MustModel(&Account{})

	fmt.Println(b.Validate(context.Background(), &Account{Email: "nope", Age: 30}))
	// Output: Key: 'Account.Email' Error:Field validation for 'Email' failed on the 'email' tag
}

func ExampleBase_InsertSQL() {
	type Track struct {
		ID     uint   `sqld:"primaryKey"`
		Title  string `sqld:"required"`
		Length time.Duration
	}

	b, err := sqldantic.NewBase(nil)
	if err != nil {
		panic(err)
	}
	b.MustTable(&Track{})

	track := Track{Title: "Paranoid Android", Length: 387 * time.Second}
	query, args, err := b.InsertSQL(context.Background(), sqltype.Postgres, &track)
	if err != nil {
		panic(err)
	}
	fmt.Println(query)
	fmt.Println(args)
	// Output:
	// INSERT INTO "tracks" ("title","length") VALUES ($1,$2)
	// [Paranoid Android 387000000000]
}
