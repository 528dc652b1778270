package adapter

import (
	"github.com/gomartian/adapter/martianerrors"
	"github.com/gomartian/adapter/metadata"
	"github.com/gomartian/adapter/rover"
)

// Context is the per-invocation state a RawStage dispatches against: the
// Metadata Store for reading and publishing files, and the Rover handed to
// user code.
type Context struct {
	Store *metadata.Store
	Rover *rover.Rover
}

func (c *Context) decodeArgs(v interface{}) error {
	if err := c.Store.ReadJSON("args", v); err != nil {
		return martianerrors.New(martianerrors.Initialization, "read _args", err)
	}
	return nil
}

func (c *Context) complete(key string, v interface{}) error {
	if err := c.Store.CompleteWith(key, v); err != nil {
		return martianerrors.New(martianerrors.Serialization, "write "+key, err)
	}
	return nil
}
