package pffitem

import "errors"

var errNotRecoveryTree = errors.New("pffitem: InsertRecovered called on a non-recovery tree")
