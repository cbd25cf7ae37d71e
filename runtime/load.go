package runtime

import (
	stderrors "errors"
	"io"
	"io/fs"
	"path"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/wippyai/lua-runtime/errors"
	"github.com/wippyai/lua-runtime/scripthost"
)

// LoadFile resolves a script by logical name and executes it in the engine
// state. Host files shadow system files: the host collaborator is asked
// first and the system collaborator only when the host reports not-found.
func (i *Instance) LoadFile(name string) error {
	if err := i.usable(); err != nil {
		return err
	}

	if i.files != nil {
		rc, err := i.files.Open(name)
		switch {
		case err == nil:
			return i.runStream(rc, name)
		case !notFound(err):
			return errors.New(errors.PhaseLoad, errors.KindNotFound).
				Resource(i.resource).
				Script(name).
				Cause(err).
				Detail("host file open failed").
				Build()
		}
	}

	return i.LoadSystemFile(name)
}

// LoadSystemFile resolves a script from the system collaborator only and
// executes it.
func (i *Instance) LoadSystemFile(name string) error {
	if err := i.usable(); err != nil {
		return err
	}

	if i.system == nil {
		return errors.FileNotFound(i.resource, name)
	}
	rc, err := i.system.Open(name)
	if err != nil {
		if notFound(err) {
			return errors.FileNotFound(i.resource, name)
		}
		return errors.New(errors.PhaseLoad, errors.KindNotFound).
			Resource(i.resource).
			Script(name).
			Cause(err).
			Detail("system file open failed").
			Build()
	}
	return i.runStream(rc, name)
}

// LoadNativesBuild loads a native-call definition file from the configured
// natives directory.
func (i *Instance) LoadNativesBuild(file string) error {
	return i.LoadSystemFile(path.Join(i.nativesDir, file))
}

// runStream compiles and executes one script chunk. Syntax failures surface
// as compile errors, script raises as execution errors, and a panic out of
// the engine latches corruption.
func (i *Instance) runStream(rc io.ReadCloser, name string) error {
	defer rc.Close()

	L := i.holder.L()
	fn, err := L.Load(rc, "@"+name)
	if err != nil {
		i.prof.EmitDebug("compile-error", err.Error())
		return errors.CompileFailed(i.resource, name, err)
	}

	L.Push(fn)
	if err := L.PCall(0, 0, i.dbTraceback); err != nil {
		return i.classifyScriptError(errors.PhaseLoad, name, err)
	}

	i.log.Debug("script loaded", zap.String("script", name))
	return nil
}

// classifyScriptError folds an engine error into the runtime taxonomy. Only
// an engine panic is fatal; everything else leaves the instance usable.
func (i *Instance) classifyScriptError(phase errors.Phase, script string, err error) error {
	var api *lua.ApiError
	if stderrors.As(err, &api) {
		switch api.Type {
		case lua.ApiErrorSyntax:
			return errors.CompileFailed(i.resource, script, err)
		case lua.ApiErrorPanic:
			fatal := errors.Corrupt("engine panic during "+string(phase), err)
			i.markCorrupt(fatal)
			return fatal
		}
	}

	i.prof.EmitDebug("script-error", err.Error())
	return errors.ExecFailed(phase, i.resource, script, err)
}

func notFound(err error) bool {
	return stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, scripthost.ErrNotFound)
}
