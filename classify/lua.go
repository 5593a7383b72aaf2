package classify

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	glua "github.com/yuin/gopher-lua"
)

// LuaClassifier lets a host dialect supply classify_screen(lines) in Lua
// instead of recompiling Go, satisfying spec §4.5's requirement that
// different host dialects plug in their own classifier without editing
// the core. Grounded on the teacher's lua.Engine lifecycle and its
// LRU-cached regex binding (lua/api_regex.go), generalised from a MUD
// scripting host to a single classify_screen entry point.
type LuaClassifier struct {
	mu         sync.Mutex
	state      *glua.LState
	regexCache *lru.Cache[string, *regexp.Regexp]
	scriptPath string
}

// NewLuaClassifier loads and runs the script at path, which must define a
// global function `classify_screen(lines)` returning a table with
// type/options/option_string/default_option fields. HasErrors is taken
// from the frame passed to Classify; a has_errors field in the returned
// table is not read.
func NewLuaClassifier(path string) (*LuaClassifier, error) {
	c := &LuaClassifier{scriptPath: path}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// reload (re)initializes the Lua VM from the script file; called at
// construction and by Watcher on hot-reload.
func (c *LuaClassifier) reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	content, err := os.ReadFile(c.scriptPath)
	if err != nil {
		return fmt.Errorf("reading classifier script %s: %w", c.scriptPath, err)
	}

	cache, _ := lru.New[string, *regexp.Regexp](100)

	L := glua.NewState()
	c.registerRegexFuncs(L, cache)

	if err := L.DoString(string(content)); err != nil {
		L.Close()
		return fmt.Errorf("executing classifier script %s: %w", c.scriptPath, err)
	}

	if old := c.state; old != nil {
		old.Close()
	}
	c.state = L
	c.regexCache = cache
	return nil
}

// registerRegexFuncs binds lims.regex_match(pattern, text), caching
// compiled patterns the same way the teacher's rune._regex.match does.
func (c *LuaClassifier) registerRegexFuncs(L *glua.LState, cache *lru.Cache[string, *regexp.Regexp]) {
	limsTable := L.NewTable()
	L.SetGlobal("lims", limsTable)

	L.SetField(limsTable, "regex_match", L.NewFunction(func(L *glua.LState) int {
		pattern := L.CheckString(1)
		text := L.CheckString(2)

		re, ok := cache.Get(pattern)
		if !ok {
			var err error
			re, err = regexp.Compile(pattern)
			if err != nil {
				L.Push(glua.LNil)
				L.Push(glua.LString(err.Error()))
				return 2
			}
			cache.Add(pattern, re)
		}

		matches := re.FindStringSubmatch(text)
		if matches == nil {
			L.Push(glua.LNil)
			return 1
		}
		tbl := L.NewTable()
		for i, m := range matches {
			tbl.RawSetInt(i+1, glua.LString(m))
		}
		L.Push(tbl)
		return 1
	}))
}

// Classify calls the script's classify_screen(lines) function.
func (c *LuaClassifier) Classify(lines []string, hasErrors bool) Classification {
	c.mu.Lock()
	defer c.mu.Unlock()

	L := c.state
	linesTbl := L.NewTable()
	for i, l := range lines {
		linesTbl.RawSetInt(i+1, glua.LString(l))
	}

	fn := L.GetGlobal("classify_screen")
	if fn.Type() != glua.LTFunction {
		return Classification{Type: "UNKNOWN", HasErrors: hasErrors}
	}

	if err := L.CallByParam(glua.P{Fn: fn, NRet: 1, Protect: true}, linesTbl); err != nil {
		return Classification{Type: "UNKNOWN", HasErrors: hasErrors}
	}
	ret := L.Get(-1)
	L.Pop(1)

	result := Classification{Type: "UNKNOWN", HasErrors: hasErrors}
	tbl, ok := ret.(*glua.LTable)
	if !ok {
		return result
	}

	if t := tbl.RawGetString("type"); t.Type() == glua.LTString {
		result.Type = t.String()
	}
	if d := tbl.RawGetString("default_option"); d.Type() == glua.LTString {
		result.DefaultOption = d.String()
	}
	if s := tbl.RawGetString("option_string"); s.Type() == glua.LTString {
		result.OptionString = s.String()
	}
	if opts, ok := tbl.RawGetString("options").(*glua.LTable); ok {
		opts.ForEach(func(_, v glua.LValue) {
			result.Options = append(result.Options, v.String())
		})
	}
	return result
}

// Close releases the Lua VM.
func (c *LuaClassifier) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != nil {
		c.state.Close()
	}
}
