package main

import (
	"regcall/internal/jsonw"
	"regcall/internal/summary"
)

// writeFunction streams one function's call-site analysis as a JSON
// object matching spec.md §6's schema.
func writeFunction(w *jsonw.Writer, fs *summary.FunctionSummary, resolver summary.CalleeInfo, onlyToPlt bool) {
	w.OpenObject()
	w.AddMemberKey("funcName")
	w.AddString(fs.Name)
	w.AddMemberKey("funcAddr")
	w.AddUint(fs.Addr)
	w.AddMemberKey("sectionName")
	w.AddString(fs.SectionName)
	w.AddMemberKey("isInPlt")
	w.AddBool(fs.IsInPlt)
	w.AddMemberKey("calls")
	w.OpenArray()
	for _, call := range fs.Calls(resolver, onlyToPlt) {
		writeCall(w, call)
	}
	w.CloseArray()
	w.CloseObject()
}

func writeCall(w *jsonw.Writer, call summary.CallRecord) {
	w.OpenObject()
	w.AddMemberKey("callInstructionAddr")
	w.AddUint(call.CallInsnAddr)
	w.AddMemberKey("calledAddr")
	if call.HasCalledAddr {
		w.AddUint(call.CalledAddr)
	} else {
		w.AddNull()
	}
	w.AddMemberKey("callToPlt")
	w.AddBool(call.CallToPlt)
	w.AddMemberKey("liveRegisters")
	w.OpenArray()
	for _, r := range call.LiveRegisters {
		w.AddString(r)
	}
	w.CloseArray()
	w.AddMemberKey("funcNames")
	w.OpenArray()
	for _, n := range call.FuncNames {
		w.AddString(n)
	}
	w.CloseArray()
	w.CloseObject()
}
