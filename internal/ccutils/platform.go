package ccutils

// exeName appends the platform's executable extension to a bare binary name.
func exeName(name string) string {
	return name + exeExtension()
}
