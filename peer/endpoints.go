// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"fmt"

	"github.com/rdiffbackup-go/transport/logging"
	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/session"
	"github.com/rdiffbackup-go/transport/vfile"
)

// RegisterEndpoints binds the curated names every session must expose to
// its peer regardless of which application is built on top of this
// transport: the three VirtualFile.* operations backing remote stream
// handles, RedirectedRun (which a routed peer's calls are rewritten into),
// and log.Log.* (log_to_file/set_verbosity/open_logfile_remote), the
// remote surface a ForwardHook installed on log reaches. This is the Go
// equivalent of Connection.import_modules's local_elements table. log may
// be nil, in which case a fresh default Logger backs the endpoints.
func RegisterEndpoints(ctx *session.Context, log *logging.Logger) {
	if log == nil {
		log = logging.New()
	}
	ctx.Names.Bind("VirtualFile", vfileEndpoints{files: ctx.Files})
	ctx.Names.Bind("RedirectedRun", resolver.Func(func(args []any) (any, error) {
		return redirectedRun(ctx, args)
	}))
	ctx.Names.Bind("log", logModule{log: logEndpoints{log: log}})
}

// logModule is the single intermediate segment "log.Log.*" names walk
// through: resolver.Registry.Resolve splits a dotted name on ".", so
// reaching log.Log.log_to_file requires a root "log" whose Attrs exposes a
// child "Log" that in turn exposes the three endpoint functions.
type logModule struct{ log logEndpoints }

func (m logModule) Attrs() map[string]any {
	return map[string]any{"Log": m.log}
}

type logEndpoints struct{ log *logging.Logger }

func (e logEndpoints) Attrs() map[string]any {
	return map[string]any{
		"log_to_file":         resolver.Func(e.logToFile),
		"set_verbosity":       resolver.Func(e.setVerbosity),
		"open_logfile_remote": resolver.Func(e.openLogfileRemote),
	}
}

func (e logEndpoints) logToFile(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("log.Log.log_to_file: want 2 arguments, got %d", len(args))
	}
	message, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("log.Log.log_to_file: want string message, got %T", args[0])
	}
	v, err := asInt(args[1])
	if err != nil {
		return nil, err
	}
	e.log.Log(message, logging.Verbosity(v))
	return nil, nil
}

func (e logEndpoints) setVerbosity(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("log.Log.set_verbosity: want 1 argument, got %d", len(args))
	}
	v, err := asInt(args[0])
	if err != nil {
		return nil, err
	}
	e.log.SetVerbosity(logging.Verbosity(v))
	return nil, nil
}

func (e logEndpoints) openLogfileRemote(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("log.Log.open_logfile_remote: want 1 argument, got %d", len(args))
	}
	path, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("log.Log.open_logfile_remote: want string path, got %T", args[0])
	}
	return nil, e.log.OpenLogfile(path)
}

type vfileEndpoints struct{ files *vfile.Table }

func (v vfileEndpoints) Attrs() map[string]any {
	return map[string]any{
		"readfromid": resolver.Func(v.readFromID),
		"writetoid":  resolver.Func(v.writeToID),
		"closebyid":  resolver.Func(v.closeByID),
	}
}

func (v vfileEndpoints) readFromID(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("VirtualFile.readfromid: want 2 arguments, got %d", len(args))
	}
	id, err := asID(args[0])
	if err != nil {
		return nil, err
	}
	n, err := asInt(args[1])
	if err != nil {
		return nil, err
	}
	return v.files.Read(id, n)
}

func (v vfileEndpoints) writeToID(args []any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("VirtualFile.writetoid: want 2 arguments, got %d", len(args))
	}
	id, err := asID(args[0])
	if err != nil {
		return nil, err
	}
	buf, ok := args[1].([]byte)
	if !ok {
		return nil, fmt.Errorf("VirtualFile.writetoid: want []byte, got %T", args[1])
	}
	return v.files.Write(id, buf)
}

func (v vfileEndpoints) closeByID(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("VirtualFile.closebyid: want 1 argument, got %d", len(args))
	}
	id, err := asID(args[0])
	if err != nil {
		return nil, err
	}
	return nil, v.files.Close(id)
}

// redirectedRun evaluates function funcName, with the remaining args, on
// the connection numbered by args[0] — the server-side handler for a
// RoutedPeer's rewritten call. It refuses to target the local connection,
// matching the assertion connection.py: RedirectedRun documents in its
// docstring ("conn_number must not be the local connection").
func redirectedRun(ctx *session.Context, args []any) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("RedirectedRun: want at least 2 arguments, got %d", len(args))
	}
	connNumber, err := asID(args[0])
	if err != nil {
		return nil, err
	}
	if session.ConnNumber(connNumber) == session.LocalConnNumber {
		return nil, ErrRedirectToLocal
	}
	funcName, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("RedirectedRun: want string function name, got %T", args[1])
	}
	target, err := ctx.Registry.Lookup(session.ConnNumber(connNumber))
	if err != nil {
		return nil, err
	}
	return target.Reval(context.Background(), funcName, args[2:]...)
}

func asID(v any) (vfile.ID, error) {
	n, err := asInt(v)
	if err != nil {
		return 0, err
	}
	return vfile.ID(n), nil
}

func asInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case vfile.ID:
		return int(n), nil
	default:
		return 0, fmt.Errorf("peer: expected integer argument, got %T", v)
	}
}
