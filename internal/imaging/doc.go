// Package imaging turns raster images into binary masks and renders the
// results of shape detection back onto them.
//
// Images are decoded with disintegration/imaging (EXIF orientation applied)
// and cached by path in an ImageCache. Prepare downscales an image to a
// working size and binarises it with BuildMask in one of two modes:
//
//   - ModeThreshold: grayscale, Gaussian blur, then an inverse binary
//     threshold so dark shapes on a light background become foreground.
//   - ModeCanny: grayscale, blur, then Canny edges, producing outlines.
//
// The resulting Binary reports foreground pixels through Width, Height and
// At, which is all the contour tracer needs.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward. For regions (x1,y1) is
// inclusive and (x2,y2) exclusive, except CropAround, which takes the
// inclusive extents reported by geometry.Bounds.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The remaining functions are
// stateless and never modify their input images.
package imaging
