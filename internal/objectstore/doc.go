// Package objectstore stores uploaded listing images in MongoDB GridFS.
//
// Objects live in the "images" bucket and are addressed by the hex form of
// their GridFS ObjectID. The content type is kept in the file metadata so
// downloads can be served with the original header.
package objectstore
