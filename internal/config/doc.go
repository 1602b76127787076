// Package config defines the format-agnostic settings of a build run, along
// with the Loader interface that fills them from a configuration file.
//
// Settings are resolved once per invocation. Command templates declared in
// the file are evaluated at load time against the invocation's arguments,
// so the scheduler only ever sees a ready-to-render template.Template.
// Concrete loaders, such as for HCL, are provided in separate packages.
package config
