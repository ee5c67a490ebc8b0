package main

import (
	"fmt"
)

// calculateJobTime calculates the estimated time to move one video through
// the pipeline: download from the Douyin CDN, optional re-encode, resumable
// upload to YouTube.
func calculateJobTime(videoSizeMB float64, networkSpeedMbps float64, reencode bool) {
	// Convert Mbps to MB/s (divide by 8)
	networkSpeedMBps := networkSpeedMbps / 8.0

	fmt.Printf("=== Job Performance Calculator ===\n\n")
	fmt.Printf("Video Size: %.2f MB\n", videoSizeMB)
	fmt.Printf("Network Speed: %.2f Mbps (%.2f MB/s)\n\n", networkSpeedMbps, networkSpeedMBps)

	// Step 1: Download from the Douyin CDN
	downloadTime := videoSizeMB / networkSpeedMBps
	fmt.Printf("1. Download from Douyin CDN:\n")
	fmt.Printf("   Time: %.3f seconds (%.2f ms)\n", downloadTime, downloadTime*1000)
	fmt.Printf("   Politeness delay: 1000ms per item\n")
	fmt.Printf("   Total: %.3f seconds\n\n", downloadTime+1.0)

	// Step 2: Optional re-encode
	reencodeTime := 0.0
	if reencode {
		// ffmpeg on the medium preset handles roughly 2MB of input per second
		// for 1080p, good enough as a planning figure
		reencodeTime = videoSizeMB / 2.0
		fmt.Printf("2. Re-encode (ffmpeg, youtube_optimized preset):\n")
		fmt.Printf("   Time: ~%.1f seconds\n\n", reencodeTime)
	} else {
		fmt.Printf("2. Re-encode: skipped\n\n")
	}

	// Step 3: Resumable upload to YouTube
	uploadTime := videoSizeMB / networkSpeedMBps
	chunks := int(videoSizeMB/8.0) + 1
	fmt.Printf("3. Upload to YouTube (resumable, 8MB chunks):\n")
	fmt.Printf("   Time: %.3f seconds across %d chunk(s)\n", uploadTime, chunks)
	fmt.Printf("   API Overhead: ~500ms (session init + status verify)\n")
	fmt.Printf("   Total: %.3f seconds\n\n", uploadTime+0.5)

	// Total time
	totalNetworkTime := downloadTime + uploadTime
	totalAPITime := 0.5
	totalProcessingTime := 1.0 + reencodeTime
	totalTime := totalNetworkTime + totalAPITime + totalProcessingTime

	fmt.Printf("=== Summary ===\n")
	fmt.Printf("Network I/O (Download + Upload): %.3f seconds\n", totalNetworkTime)
	fmt.Printf("API Calls Overhead: %.3f seconds\n", totalAPITime)
	fmt.Printf("Processing (delay + re-encode): %.3f seconds\n", totalProcessingTime)
	fmt.Printf("─────────────────────────────────\n")
	fmt.Printf("TOTAL JOB TIME: %.3f seconds\n\n", totalTime)

	// Real-world considerations
	fmt.Printf("=== Real-World Considerations ===\n")
	fmt.Printf("• Network latency: +50-200ms\n")
	fmt.Printf("• Connection setup: +50-100ms\n")
	fmt.Printf("• Chunk retry on 5xx: up to 5 attempts with backoff\n")
	fmt.Printf("─────────────────────────────────\n")
	estimatedRealWorld := totalTime + 0.3
	fmt.Printf("ESTIMATED REAL-WORLD TIME: ≈ %.1f seconds\n", estimatedRealWorld)
}

func main() {
	// Example: typical short vertical feed video with 170Mbps network
	calculateJobTime(25.0, 170.0, false)

	fmt.Println()
	fmt.Println("=== Additional Scenarios ===")
	fmt.Println()

	// Different video sizes, re-encode skipped
	sizes := []float64{1, 5, 10, 50, 100}
	for _, size := range sizes {
		networkSpeedMBps := 170.0 / 8.0
		downloadTime := size / networkSpeedMBps
		uploadTime := size / networkSpeedMBps
		totalNetworkTime := downloadTime + uploadTime
		estimatedTotal := totalNetworkTime + 0.5 + 1.0 + 0.3 // API + delay + overhead
		fmt.Printf("Video %5.0f MB: ~%.2f seconds\n", size, estimatedTotal)
	}
}
