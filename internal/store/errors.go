package store

import (
	"errors"

	"callcenter-platform/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgInvalidText         = "22P02"
)

// MapError translates driver errors into apperr kinds. entity names the
// resource in messages ("lead", "call").
func MapError(entity string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("%s not found", entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			e := apperr.Conflict("%s already exists", entity)
			e.Cause = err
			return e
		case pgForeignKeyViolation:
			return &apperr.Error{Kind: apperr.KindValidation, Message: "referenced record does not exist", Cause: err}
		case pgCheckViolation, pgInvalidText:
			return &apperr.Error{Kind: apperr.KindValidation, Message: "invalid " + entity, Cause: err}
		}
	}
	return err
}
