package engine

// Exported entry point names of the engine module. The table is closed and
// explicit: the bridge never dispatches by arbitrary name, only through
// these constants.
const (
	// Kernel management
	FnTkVersion = "tspice_tkvrsn_toolkit"
	FnFurnsh    = "tspice_furnsh"
	FnUnload    = "tspice_unload"
	FnKclear    = "tspice_kclear"
	FnKtotal    = "tspice_ktotal"

	// Time conversions
	FnStr2ET = "tspice_str2et"
	FnET2UTC = "tspice_et2utc"

	// Ephemeris
	FnSpkEzr = "tspice_spkezr"

	// Direct access files (DAF/DAS/DLA)
	FnDafOpenRead = "tspice_dafopr"
	FnDafClose    = "tspice_dafcls"
	FnDafBegin    = "tspice_dafbfs"
	FnDafNext     = "tspice_daffna"
	FnDasOpenRead = "tspice_dasopr"
	FnDasClose    = "tspice_dascls"
	FnDlaOpen     = "tspice_dlaopn"

	// Event kernels
	FnEkOpenNew     = "tspice_ekopn"
	FnEkOpenRead    = "tspice_ekopr"
	FnEkOpenWrite   = "tspice_ekopw"
	FnEkClose       = "tspice_ekcls"
	FnEkInitSegment = "tspice_ekifld"
	FnEkAddInt      = "tspice_ekacli"
	FnEkAddDouble   = "tspice_ekacld"
	FnEkAddString   = "tspice_ekaclc"
	FnEkFinish      = "tspice_ekffld"

	// Failure state
	FnFailed    = "tspice_failed"
	FnReset     = "tspice_reset"
	FnGetMsg    = "tspice_getmsg"
	FnLastShort = "tspice_get_last_error_short"
	FnLastLong  = "tspice_get_last_error_long"
	FnLastTrace = "tspice_get_last_error_trace"

	// Heap management (emscripten)
	FnMalloc = "malloc"
	FnFree   = "free"
)

// EntryPoints lists every engine export the bridge may call.
var EntryPoints = []string{
	FnTkVersion, FnFurnsh, FnUnload, FnKclear, FnKtotal,
	FnStr2ET, FnET2UTC,
	FnSpkEzr,
	FnDafOpenRead, FnDafClose, FnDafBegin, FnDafNext,
	FnDasOpenRead, FnDasClose, FnDlaOpen,
	FnEkOpenNew, FnEkOpenRead, FnEkOpenWrite, FnEkClose,
	FnEkInitSegment, FnEkAddInt, FnEkAddDouble, FnEkAddString, FnEkFinish,
	FnFailed, FnReset, FnGetMsg, FnLastShort, FnLastLong, FnLastTrace,
	FnMalloc, FnFree,
}
