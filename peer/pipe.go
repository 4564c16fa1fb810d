// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package peer

import (
	"context"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/rdiffbackup-go/transport/frame"
	"github.com/rdiffbackup-go/transport/lifecycle"
	"github.com/rdiffbackup-go/transport/logging"
	"github.com/rdiffbackup-go/transport/marshal"
	"github.com/rdiffbackup-go/transport/reqnum"
	"github.com/rdiffbackup-go/transport/resolver"
	"github.com/rdiffbackup-go/transport/rpcerr"
	"github.com/rdiffbackup-go/transport/security"
	"github.com/rdiffbackup-go/transport/session"
	"github.com/rdiffbackup-go/transport/wire"
)

// PipePeer is the reentrant, request/response-multiplexed peer that sits
// on one end of a pipe pair — the Go analogue of PipeConnection. Both the
// client that opens a subprocess and the server running inside it use the
// same type; the only difference is who calls Reval first and who calls
// Serve, exactly as the source's docstring notes.
type PipePeer struct {
	connNumber session.ConnNumber
	codec      *frame.Codec
	rawIn      io.Reader
	rawOut     io.Writer
	reqNums    *reqnum.Pool
	sess       *session.Context
	policy     security.Policy
	class      security.Class
	proc       *os.Process
	log        *logging.Logger
}

// NewPipePeer builds a PipePeer reading from in and writing to out.
// proc may be nil (e.g. the server side, or an in-process test harness
// wiring two PipePeers to each other over an os.Pipe); it is only used by
// Quit to reap a client-owned subprocess.
func NewPipePeer(connNumber session.ConnNumber, in io.Reader, out io.Writer, sess *session.Context, policy security.Policy, class security.Class, proc *os.Process, log *logging.Logger, opts ...frame.Option) *PipePeer {
	if log == nil {
		log = logging.New()
	}
	p := &PipePeer{
		connNumber: connNumber,
		codec:      frame.NewCodec(in, out, opts...),
		rawIn:      in,
		rawOut:     out,
		reqNums:    reqnum.NewPool(),
		sess:       sess,
		policy:     policy,
		class:      class,
		proc:       proc,
		log:        log,
	}
	if class == security.ClassServer {
		log.ForwardTo(p, context.Background())
	}
	return p
}

func (p *PipePeer) ConnNumber() session.ConnNumber { return p.connNumber }

// Reval sends a call down the pipe and blocks until its matching response
// arrives, answering any inbound requests that interleave with it along
// the way — the Go analogue of PipeConnection.reval.
func (p *PipePeer) Reval(ctx context.Context, name string, args ...any) (any, error) {
	reqNum, err := p.reqNums.Allocate()
	if err != nil {
		return nil, err
	}
	defer p.reqNums.Release(reqNum)

	p.log.Conn("->", reqNum, name)
	if err := p.putRequest(reqNum, name, len(args)); err != nil {
		return nil, err
	}
	for _, a := range args {
		if err := p.putValue(reqNum, a); err != nil {
			return nil, err
		}
	}
	result, err := p.getResponse(ctx, int(reqNum))
	p.log.Conn("<-", reqNum, name)
	return result, err
}

// Serve runs the server-side read-eval-respond loop forever, answering
// every inbound request until a quit frame ends it — the Go analogue of
// PipeConnection.Server calling self._get_response(-1).
func (p *PipePeer) Serve(ctx context.Context) error {
	_, err := p.getResponse(ctx, reqnum.None)
	if err == rpcerr.ErrQuit {
		return nil
	}
	return err
}

func (p *PipePeer) putRequest(reqNum uint8, funcName string, numArgs int) error {
	payload, err := wire.EncodeOpaque(requestEnvelope{FuncName: funcName, NumArgs: numArgs})
	if err != nil {
		return err
	}
	return p.codec.Write(frame.TagOpaque, reqNum, payload)
}

func (p *PipePeer) putValue(reqNum uint8, v any) error {
	tag, payload, err := marshal.Encode(p.sess, v)
	if err != nil {
		return err
	}
	return p.codec.Write(tag, reqNum, payload)
}

func (p *PipePeer) putResult(reqNum uint8, env resultEnvelope) error {
	payload, err := wire.EncodeOpaque(env)
	if err != nil {
		return err
	}
	return p.codec.Write(frame.TagOpaque, reqNum, payload)
}

// getResponse reads frames until one with request number desired arrives,
// answering any other (necessarily a new request) along the way. desired
// is reqnum.None on the server's main loop, which can never match a real
// wire request number, so every frame is treated as a new request until a
// quit frame ends the loop.
func (p *PipePeer) getResponse(ctx context.Context, desired int) (any, error) {
	for {
		fr, err := p.codec.Read()
		if err != nil {
			return nil, err
		}

		if fr.Tag == frame.TagQuit {
			return nil, p.handleQuit()
		}

		if int(fr.ReqNum) == desired {
			return p.decodeResult(ctx, fr)
		}

		if err := p.answerRequest(ctx, fr); err != nil {
			return nil, err
		}
	}
}

func (p *PipePeer) decodeResult(ctx context.Context, fr frame.Frame) (any, error) {
	if fr.Tag != frame.TagOpaque {
		return nil, &UnexpectedFrameError{Reason: "expected a result envelope frame"}
	}
	var env resultEnvelope
	if err := wire.DecodeOpaque(fr.Payload, &env); err != nil {
		return nil, err
	}
	if env.Failed {
		return nil, env.Failure.ToError()
	}
	return marshal.Decode(ctx, p.sess, p, env.ValueTag, env.ValuePayload)
}

// answerRequest reads a request's arguments, vets and evaluates it, and
// sends back the result — the Go analogue of PipeConnection._answer_request.
func (p *PipePeer) answerRequest(ctx context.Context, reqFrame frame.Frame) error {
	reqNum := reqFrame.ReqNum
	p.reqNums.Claim(reqNum)
	defer p.reqNums.Release(reqNum)

	if reqFrame.Tag != frame.TagOpaque {
		return &UnexpectedFrameError{Reason: "expected a request envelope frame"}
	}
	var req requestEnvelope
	if err := wire.DecodeOpaque(reqFrame.Payload, &req); err != nil {
		return err
	}
	p.log.Conn("<-", reqNum, req.FuncName)

	args := make([]any, req.NumArgs)
	for i := 0; i < req.NumArgs; i++ {
		argFrame, err := p.codec.Read()
		if err != nil {
			return err
		}
		if argFrame.ReqNum != reqNum {
			return &ProtocolError{Want: reqNum, Got: argFrame.ReqNum}
		}
		val, err := marshal.Decode(ctx, p.sess, p, argFrame.Tag, argFrame.Payload)
		if err != nil {
			return err
		}
		args[i] = val
	}

	result, callErr := p.evaluate(req, args)
	if callErr != nil {
		if rpcerr.IsFatal(callErr) {
			return callErr
		}
		p.log.Log("answering request "+req.FuncName+" with failure: "+callErr.Error(), logging.Info)
		p.log.Conn("->", reqNum, req.FuncName+" (failure)")
		return p.putResult(reqNum, resultEnvelope{Failed: true, Failure: rpcerr.Capture(callErr)})
	}
	tag, payload, err := marshal.Encode(p.sess, result)
	if err != nil {
		return p.putResult(reqNum, resultEnvelope{Failed: true, Failure: rpcerr.Capture(err)})
	}
	p.log.Conn("->", reqNum, req.FuncName+" (result)")
	return p.putResult(reqNum, resultEnvelope{ValueTag: tag, ValuePayload: payload})
}

func (p *PipePeer) evaluate(req requestEnvelope, args []any) (any, error) {
	if p.policy != nil {
		if err := p.policy.Vet(p.class, security.Request{FuncName: req.FuncName, Args: args}); err != nil {
			return nil, err
		}
	}
	fn, err := p.sess.Names.Resolve(req.FuncName)
	if err != nil {
		return nil, err
	}
	return resolver.Invoke(fn, args)
}

// handleQuit answers a received quit frame with the acknowledgement the
// other side's Quit is waiting on, then closes the pipes. It always
// returns rpcerr.ErrQuit so callers (Serve, Reval) can tell a clean
// shutdown apart from an I/O failure.
func (p *PipePeer) handleQuit() error {
	if reqNum, err := p.reqNums.Allocate(); err == nil {
		_ = p.putResult(reqNum, resultEnvelope{ValueTag: frame.TagBytes, ValuePayload: []byte("quitting")})
		p.reqNums.Release(reqNum)
	}
	if err := p.closePipes(); err != nil {
		p.log.Log("error closing pipes on quit: "+err.Error(), logging.Warning)
	}
	return rpcerr.ErrQuit
}

// closePipes closes both halves of the transport, collecting any error
// from each half rather than discarding the first in favor of the second.
func (p *PipePeer) closePipes() error {
	var errs *multierror.Error
	if c, ok := p.rawOut.(io.Closer); ok {
		errs = multierror.Append(errs, c.Close())
	}
	if c, ok := p.rawIn.(io.Closer); ok {
		errs = multierror.Append(errs, c.Close())
	}
	return errs.ErrorOrNil()
}

// Quit tells the server side to shut down and, on the client that owns a
// subprocess, reaps it — the Go analogue of PipeConnection.quit.
func (p *PipePeer) Quit(ctx context.Context, opts lifecycle.ReapOptions) error {
	if err := p.codec.Write(frame.TagQuit, frame.QuitReqNum, nil); err != nil {
		return err
	}
	if _, err := p.codec.Read(); err != nil && err != io.EOF {
		return err
	}
	var errs *multierror.Error
	errs = multierror.Append(errs, p.closePipes())
	errs = multierror.Append(errs, lifecycle.Reap(p.proc, opts))
	return errs.ErrorOrNil()
}
