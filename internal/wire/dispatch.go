package wire

import (
	"context"
	"fmt"

	"github.com/zeebo/bencode"

	"github.com/dangercoder/cljr/internal/cljrerr"
	"github.com/dangercoder/cljr/internal/repl"
)

// frame is one bencoded response dictionary.
type frame = map[string]any

// opResult is what an op handler produces: zero or more response frames
// plus any extra status tokens to fold into the final status list (spec
// §6 "a final status list containing done").
type opResult struct {
	frames []frame
	status []string
}

type opHandler func(s *Server, ctx context.Context, sess *repl.Session, req map[string]any) opResult

// ops is the dispatch table; describe's ops map (spec §6) is generated
// from this same table's keys so the two can never drift apart (spec
// SUPPLEMENTED FEATURES).
var ops map[string]opHandler

func init() {
	ops = map[string]opHandler{
		"clone":        opClone,
		"close":        opClose,
		"describe":     opDescribe,
		"eval":         opEval,
		"interrupt":    opInterrupt,
		"ls-sessions":  opLsSessions,
		"load-file":    opLoadFile,
		"completions":  opCompletions,
		"reload":       opReload,
		"reload-all":   opReloadAll,
		"watch-start":  opWatchStart,
		"watch-stop":   opWatchStop,
	}
}

func (s *Server) dispatch(ctx context.Context, enc *bencode.Encoder, defaultSession *repl.Session, req map[string]any) {
	op, _ := req["op"].(string)
	id, _ := req["id"].(string)

	sess := defaultSession
	if sid, ok := req["session"].(string); ok && sid != "" {
		if found, ok := s.sessionByID(sid); ok {
			sess = found
		}
	}

	handler, ok := ops[op]
	if !ok {
		uerr := cljrerr.NewUnknownOp(op)
		s.send(enc, frame{"id": id, "session": sess.ID, "err": uerr.Message, "status": []string{"done", "unknown-op"}})
		return
	}

	result := handler(s, ctx, sess, req)
	for _, f := range result.frames {
		f["id"] = id
		f["session"] = sess.ID
		s.send(enc, f)
	}
	status := append([]string{"done"}, result.status...)
	s.send(enc, frame{"id": id, "session": sess.ID, "status": status})
}

func (s *Server) send(enc *bencode.Encoder, f frame) {
	if err := enc.Encode(f); err != nil {
		s.log.Warnw("wire encode failed", "err", err)
	}
}

func opClone(s *Server, _ context.Context, _ *repl.Session, _ map[string]any) opResult {
	newSess := s.newSession()
	return opResult{frames: []frame{{"new-session": newSess.ID}}}
}

func opClose(s *Server, _ context.Context, sess *repl.Session, req map[string]any) opResult {
	target := sess.ID
	if sid, ok := req["session"].(string); ok && sid != "" {
		target = sid
	}
	s.closeSession(target)
	return opResult{}
}

func opDescribe(s *Server, _ context.Context, _ *repl.Session, _ map[string]any) opResult {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	return opResult{frames: []frame{{"ops": names, "versions": frame{"cljr": Version}}}}
}

func opEval(_ *Server, ctx context.Context, sess *repl.Session, req map[string]any) opResult {
	code, _ := req["code"].(string)
	res := sess.Eval(ctx, code)
	return evalFrames(res)
}

func opLoadFile(_ *Server, ctx context.Context, sess *repl.Session, req map[string]any) opResult {
	file, _ := req["file"].(string)
	res := sess.Eval(ctx, file)
	return evalFrames(res)
}

func evalFrames(res *repl.EvalResult) opResult {
	var frames []frame
	if res.Stdout != "" {
		frames = append(frames, frame{"out": res.Stdout})
	}
	for _, v := range res.Values {
		frames = append(frames, frame{"value": fmt.Sprint(v), "ns": res.Namespace})
	}
	if res.Err != nil {
		frames = append(frames, frame{"err": res.Err.Message, "ex": res.Err.Kind.String()})
		return opResult{frames: frames, status: []string{"eval-error"}}
	}
	return opResult{frames: frames}
}

func opInterrupt(_ *Server, _ context.Context, sess *repl.Session, _ map[string]any) opResult {
	sess.Interrupt()
	return opResult{}
}

func opLsSessions(s *Server, _ context.Context, _ *repl.Session, _ map[string]any) opResult {
	return opResult{frames: []frame{{"sessions": s.listSessionIDs()}}}
}

func opCompletions(_ *Server, _ context.Context, sess *repl.Session, req map[string]any) opResult {
	prefix, _ := req["prefix"].(string)
	cands := sess.Completions(prefix)
	out := make([]frame, 0, len(cands))
	for _, c := range cands {
		out = append(out, frame{"candidate": c.Candidate, "type": c.Type})
	}
	return opResult{frames: []frame{{"completions": out}}}
}

func opReload(_ *Server, ctx context.Context, sess *repl.Session, req map[string]any) opResult {
	ns, _ := req["ns"].(string)
	res := sess.Reload(ctx, ns)
	if !res.OK {
		return opResult{frames: []frame{{"value": ":error", "msg": res.Err.Error(), "reloaded": res.Reloaded}}, status: []string{"reload-error"}}
	}
	return opResult{frames: []frame{{"value": ":ok", "ms": res.Millis, "reloaded": res.Reloaded}}}
}

func opReloadAll(_ *Server, ctx context.Context, sess *repl.Session, _ map[string]any) opResult {
	res := sess.ReloadAll(ctx)
	if !res.OK {
		return opResult{frames: []frame{{"value": ":error", "errors": res.Err.Error(), "reloaded": res.Reloaded}}, status: []string{"reload-error"}}
	}
	return opResult{frames: []frame{{"value": ":ok", "n": len(res.Reloaded), "reloaded": res.Reloaded}}}
}

func opWatchStart(_ *Server, ctx context.Context, sess *repl.Session, _ map[string]any) opResult {
	if err := sess.WatchStart(ctx); err != nil {
		return opResult{frames: []frame{{"value": ":error", "msg": err.Error()}}, status: []string{"watch-error"}}
	}
	return opResult{frames: []frame{{"value": ":watching"}}}
}

func opWatchStop(_ *Server, _ context.Context, sess *repl.Session, _ map[string]any) opResult {
	if err := sess.WatchStop(); err != nil {
		return opResult{frames: []frame{{"value": ":error", "msg": err.Error()}}, status: []string{"watch-error"}}
	}
	return opResult{frames: []frame{{"value": ":stopped"}}}
}
