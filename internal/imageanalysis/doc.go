// Package imageanalysis runs face detection and keyword classification on
// image documents. The two service calls and the local size probe run in
// parallel; a failed call only omits its field, so a document always ends up
// with whatever analysis could be obtained. Analysis presence is the
// processing marker, and the merged result is persisted in a single write.
package imageanalysis
