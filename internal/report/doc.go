// Package report collects what a build run did and tells the outside world
// about it while it happens.
//
// BuildReport is the run summary handed back by the scheduler. Reporter is
// the progress hook the scheduler calls before every batch, after every
// package and once at the end; Console, Log and SocketIO are the available
// sinks and Multi fans out to several of them.
package report
