package backends

// BuiltInContainerType keys the container formats shipped with nbrowse.
type BuiltInContainerType = string

const (
	SevenZipType BuiltInContainerType = "7z"
)

// RegisterBuiltins registers all built-in container formats by default,
// or only the specific ones if keys are provided.
func RegisterBuiltins(formats ...BuiltInContainerType) {
	if len(formats) == 0 {
		// Include all built-in formats here when adding implementations
		formats = append(formats, SevenZipType)
	}

	for _, key := range formats {
		switch key {
		case SevenZipType:
			RegisterSevenZip()
		}
	}
}
