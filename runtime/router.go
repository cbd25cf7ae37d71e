package runtime

import (
	"encoding/json"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	luaruntime "github.com/wippyai/lua-runtime"
	"github.com/wippyai/lua-runtime/errors"
	"github.com/wippyai/lua-runtime/refs"
)

// bindRouter installs the built-in reference router into the instance's
// routine cells. Hosts that want their own routing construct the instance
// with NoRouter and inject routines before first use.
func (i *Instance) bindRouter() {
	i.SetCallRefRoutine(i.routeCallRef)
	i.SetDuplicateRefRoutine(i.routeDuplicateRef)
	i.SetDeleteRefRoutine(i.routeDeleteRef)
	i.SetStackTraceRoutine(i.routeStackTrace)
	i.refs.Subscribe(refEventTap{i})
}

// CreateRef interns a callable engine value and returns its cross-boundary
// reference. The initial reference count is one.
func (i *Instance) CreateRef(v lua.LValue) (luaruntime.Ref, error) {
	if err := i.usable(); err != nil {
		return 0, err
	}
	if !callable(i.holder.L(), v) {
		return 0, errors.InvalidInput(errors.PhaseCall, "value is not callable")
	}

	h := i.refs.Create(v)
	if h == 0 {
		return 0, errors.New(errors.PhaseCall, errors.KindAllocation).
			Resource(i.resource).
			Detail("reference table full").
			Build()
	}
	return luaruntime.Ref(h), nil
}

// routeCallRef invokes the callable behind a reference on a fresh engine
// thread. The serialized argument buffer is handed to the callable as a
// string; the first return value is serialized back.
func (i *Instance) routeCallRef(ref luaruntime.Ref, args []byte) ([]byte, error) {
	fn, ok := i.refs.Get(refs.Handle(ref))
	if !ok {
		return nil, errors.InvalidRef(int32(ref))
	}

	co, cancel, err := i.holder.NewThread()
	if err != nil {
		return nil, err
	}
	if cancel != nil {
		defer cancel()
	}

	exit := i.EnterThread(co)
	defer exit()

	if b := i.routines.boundary; b != nil {
		b(true, nil)
		defer b(false, nil)
	}

	var callArgs []lua.LValue
	if len(args) > 0 {
		if i.routines.resultAsObject != nil {
			before := co.GetTop()
			i.routines.resultAsObject(co, args)
			for n := co.GetTop() - before; n > 0; n-- {
				callArgs = append([]lua.LValue{co.Get(-1)}, callArgs...)
				co.Pop(1)
			}
		} else {
			callArgs = []lua.LValue{lua.LString(args)}
		}
	}

	i.prof.CallBegin("ref:" + i.resource)
	err = co.CallByParam(lua.P{
		Fn:      fn,
		NRet:    lua.MultRet,
		Protect: true,
		Handler: i.dbTraceback,
	}, callArgs...)
	i.prof.CallEnd()

	if err != nil {
		return nil, i.classifyScriptError(errors.PhaseCall, "", err)
	}

	if co.GetTop() == 0 {
		return nil, nil
	}
	ret := co.Get(1)
	co.Pop(co.GetTop())
	return i.marshalResult(ret), nil
}

// routeDuplicateRef increments the reference count behind a reference.
func (i *Instance) routeDuplicateRef(ref luaruntime.Ref) (luaruntime.Ref, error) {
	h, ok := i.refs.Retain(refs.Handle(ref))
	if !ok {
		return 0, errors.InvalidRef(int32(ref))
	}
	return luaruntime.Ref(h), nil
}

// routeDeleteRef decrements the reference count behind a reference,
// dropping the pinned value at zero.
func (i *Instance) routeDeleteRef(ref luaruntime.Ref) error {
	if !i.refs.Release(refs.Handle(ref)) {
		return errors.InvalidRef(int32(ref))
	}
	return nil
}

// routeStackTrace serializes the current script stack as JSON. The boundary
// cookies are accepted for interface compatibility; frame selection walks
// the whole running thread.
func (i *Instance) routeStackTrace(start, end []byte) ([]byte, error) {
	_ = start
	_ = end

	frames := i.captureFrames()
	out, err := json.Marshal(frames)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCall, errors.KindInvalidInput, err, "stack encode failed")
	}
	return out, nil
}

// marshalResult flattens a single engine value into the cross-boundary byte
// representation. Nil and none collapse to an empty buffer. String bytes go
// through the holder's buffer allocator so payload churn reuses pooled
// memory.
func (i *Instance) marshalResult(v lua.LValue) []byte {
	switch v.Type() {
	case lua.LTNil:
		return nil
	case lua.LTString:
		s := string(v.(lua.LString))
		buf := i.holder.AllocBuffer(len(s))
		copy(buf, s)
		return buf
	default:
		s := v.String()
		buf := i.holder.AllocBuffer(len(s))
		copy(buf, s)
		return buf
	}
}

// callable reports whether v can be invoked: a function, or a table or
// userdata with a __call metamethod.
func callable(L *lua.LState, v lua.LValue) bool {
	switch v.Type() {
	case lua.LTFunction:
		return true
	case lua.LTTable, lua.LTUserData:
		if mt := L.GetMetatable(v); mt != lua.LNil {
			if call := L.RawGet(mt.(*lua.LTable), lua.LString("__call")); call != lua.LNil {
				return true
			}
		}
	}
	return false
}

// refEventTap mirrors reference churn into the profiling bridge so an
// attached listener can attribute reference leaks.
type refEventTap struct {
	i *Instance
}

func (t refEventTap) OnRefEvent(e refs.Event) {
	switch e.Type {
	case refs.EventCreated:
		t.i.prof.EmitDebug("ref-created", "")
	case refs.EventDropped:
		t.i.prof.EmitDebug("ref-dropped", "")
	}
	t.i.log.Debug("reference event",
		zap.Int32("ref", int32(e.Handle)),
		zap.Uint32("count", e.Count))
}
