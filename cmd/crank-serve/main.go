package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"crank/compile"
	"crank/isa"
	"crank/isa/amd64"
	"crank/samples"
)

// compileParams names the builtin sample to compile. There's no textual
// function format in this module's scope, so a request can only pick
// something out of the builtin set rather than submit its own IR.
type compileParams struct {
	Sample       string `json:"sample"`
	NoGuardPages bool   `json:"noGuardPages"`
}

// compileResult reports an artifact's shape without shipping the raw code
// bytes over the wire: callers here want a compile-as-a-service health
// check, not a loader.
type compileResult struct {
	Size        int `json:"size"`
	Relocations int `json:"relocations"`
	Safepoints  int `json:"safepoints"`
	TrapSites   int `json:"trapSites"`
}

type server struct {
	guarded      *isa.Config
	explicitOnly *isa.Config
}

func (s *server) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "compile":
		s.handleCompile(ctx, conn, req)
	default:
		if req.Notif {
			return
		}
		replyErr(ctx, conn, req, jsonrpc2.CodeMethodNotFound, fmt.Errorf("unknown method %q", req.Method))
	}
}

func (s *server) handleCompile(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params compileParams
	if req.Params != nil {
		if err := json.Unmarshal(*req.Params, &params); err != nil {
			replyErr(ctx, conn, req, jsonrpc2.CodeInvalidParams, err)
			return
		}
	}

	sample := samples.Find(params.Sample)
	if sample == nil {
		replyErr(ctx, conn, req, jsonrpc2.CodeInvalidParams, fmt.Errorf("unknown sample %q", params.Sample))
		return
	}

	target := s.guarded
	if params.NoGuardPages {
		target = s.explicitOnly
	}

	fn := sample.Build()
	artifact, err := compile.Function(fn, target, compile.Options{})
	if err != nil {
		replyErr(ctx, conn, req, jsonrpc2.CodeInternalError, err)
		return
	}

	if err := conn.Reply(ctx, req.ID, compileResult{
		Size:        artifact.Size,
		Relocations: len(artifact.Relocations),
		Safepoints:  len(artifact.Safepoints),
		TrapSites:   len(artifact.TrapSites),
	}); err != nil {
		log.Println("reply:", err)
	}
}

func replyErr(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request, code int64, err error) {
	if req.Notif {
		log.Println(err)
		return
	}
	if sendErr := conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{Code: code, Message: err.Error()}); sendErr != nil {
		log.Println("reply:", sendErr)
	}
}

// stdrwc adapts stdin/stdout into the single io.ReadWriteCloser a
// jsonrpc2 stream needs.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}

func main() {
	log.Println("starting compile-as-a-service daemon over stdio")

	s := &server{
		guarded:      amd64.NewConfig(),
		explicitOnly: amd64.NewConfigNoGuardPages(),
	}

	ctx := context.Background()
	stream := jsonrpc2.NewBufferedStream(stdrwc{}, jsonrpc2.VSCodeObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, s)
	<-conn.DisconnectNotify()
}

var _ io.ReadWriteCloser = stdrwc{}
var _ jsonrpc2.Handler = (*server)(nil)
